package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/socialforge/types"
)

// Registry maps schema identifiers to immutable descriptors. It is built
// once at startup and only read afterwards, so lookups need no locking.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry builds a registry from the given descriptors, validating
// each one. Duplicate names are rejected.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid descriptor: %w", err)
		}
		if _, dup := r.descriptors[d.Name]; dup {
			return nil, fmt.Errorf("duplicate descriptor %q", d.Name)
		}
		r.descriptors[d.Name] = d
	}
	return r, nil
}

// Builtin returns the registry of built-in platform descriptors.
func Builtin() *Registry {
	r, err := NewRegistry(builtinDescriptors()...)
	if err != nil {
		// Built-in descriptors are compile-time constants; a failure
		// here is a programming error.
		panic(err)
	}
	return r
}

// LoadFile parses additional descriptors from a YAML file and merges them
// over the receiver's set. Descriptors in the file shadow built-ins with
// the same name. The receiver is not modified.
func (r *Registry) LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("read schema file %s", path)).WithCause(err)
	}
	var file struct {
		Schemas []Descriptor `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("parse schema file %s", path)).WithCause(err)
	}
	merged := make([]Descriptor, 0, len(r.descriptors)+len(file.Schemas))
	for _, d := range r.descriptors {
		merged = append(merged, d)
	}
	out := &Registry{descriptors: make(map[string]Descriptor, len(merged))}
	for _, d := range merged {
		out.descriptors[d.Name] = d
	}
	for _, d := range file.Schemas {
		if err := d.Validate(); err != nil {
			return nil, types.NewError(types.ErrInvalidConfig, "invalid descriptor in schema file").WithCause(err)
		}
		out.descriptors[d.Name] = d
	}
	return out, nil
}

// Get looks up a descriptor by name. An unknown name is a configuration
// failure: it must be rejected before any external call is made.
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return Descriptor{}, types.NewError(types.ErrUnknownSchema, fmt.Sprintf("unknown schema %q", name))
	}
	return d, nil
}

// Names returns all registered schema names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinDescriptors declares the five built-in platforms. Constraints
// mirror what each platform actually enforces or rewards.
func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:   "instagram",
			Title:  "Instagram",
			Prompt: "Generate an engaging caption, 15-30 relevant hashtags, and descriptive alt text for an Instagram post.",
			Fields: []Field{
				{Name: "caption", Type: FieldText, Required: true, MaxLength: 2200,
					Description: "Engaging caption, emojis welcome."},
				{Name: "hashtags", Type: FieldTextList, Required: true, MinItems: 15, MaxItems: 30, RequiredPrefix: "#",
					Description: "Relevant hashtags."},
				{Name: "alt_text", Type: FieldText, Required: true, MaxLength: 100,
					Description: "Descriptive alt text for accessibility."},
			},
		},
		{
			Name:   "facebook",
			Title:  "Facebook",
			Prompt: "Create a compelling Facebook post with an optional headline. The tone can be detailed and community-focused. Ask a question to drive comments.",
			Fields: []Field{
				{Name: "post_text", Type: FieldText, Required: true,
					Description: "Compelling post text; longer and more detailed is fine."},
				{Name: "headline", Type: FieldText,
					Description: "Optional catchy headline if the post is promotional."},
			},
		},
		{
			Name:   "x",
			Title:  "X (Twitter)",
			Prompt: "Write a short, punchy tweet (under 280 characters) with 2-3 key hashtags.",
			Fields: []Field{
				{Name: "tweet", Type: FieldText, Required: true, MaxLength: 280,
					Description: "Concise and impactful tweet."},
				{Name: "hashtags", Type: FieldTextList, Required: true, MinItems: 2, MaxItems: 3, RequiredPrefix: "#",
					Description: "Key hashtags for the tweet."},
			},
		},
		{
			Name:   "pinterest",
			Title:  "Pinterest",
			Prompt: "Create a keyword-rich title and description for a Pinterest pin, plus 15-20 relevant keywords.",
			Fields: []Field{
				{Name: "title", Type: FieldText, Required: true, MaxLength: 100,
					Description: "SEO-friendly pin title."},
				{Name: "description", Type: FieldText, Required: true, MaxLength: 500,
					Description: "Detailed description with keywords."},
				{Name: "keywords", Type: FieldTextList, Required: true, MinItems: 15, MaxItems: 20, ForbiddenPrefix: "#",
					Description: "Plain keywords, no hash marks."},
				{Name: "alt_text", Type: FieldText, MaxLength: 500,
					Description: "Alt text for the pin image."},
			},
		},
		{
			Name:   "linkedin",
			Title:  "LinkedIn",
			Prompt: "Compose a professional LinkedIn post. The tone should be informative and industry-relevant. Include 3-5 professional hashtags.",
			Fields: []Field{
				{Name: "post_text", Type: FieldText, Required: true, MaxLength: 3000,
					Description: "Professional and insightful post text."},
				{Name: "hashtags", Type: FieldTextList, Required: true, MinItems: 3, MaxItems: 5, RequiredPrefix: "#",
					Description: "Professional hashtags."},
			},
		},
	}
}
