package schema

import (
	"fmt"
	"strings"
)

// FieldType represents the value shape of a descriptor field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextList FieldType = "text_list"
)

// Field describes one expected output field and its constraints.
// Zero-valued constraints are inactive: MaxLength 0 means unbounded,
// MaxItems 0 means no upper cardinality bound, empty prefixes disable
// the prefix rules.
type Field struct {
	Name  string    `yaml:"name" json:"name"`
	Label string    `yaml:"label,omitempty" json:"label,omitempty"`
	Type  FieldType `yaml:"type" json:"type"`

	// Description is embedded in the prompt's format instructions.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Required marks the field as mandatory in the model output.
	Required bool `yaml:"required" json:"required"`

	// MaxLength bounds text fields, counted in characters (runes).
	MaxLength int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// MinItems/MaxItems bound list cardinality.
	MinItems int `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	MaxItems int `yaml:"max_items,omitempty" json:"max_items,omitempty"`

	// RequiredPrefix requires every list item to start with the marker;
	// ForbiddenPrefix forbids it. Mutually exclusive.
	RequiredPrefix  string `yaml:"required_prefix,omitempty" json:"required_prefix,omitempty"`
	ForbiddenPrefix string `yaml:"forbidden_prefix,omitempty" json:"forbidden_prefix,omitempty"`
}

// DisplayName returns the label used in issue messages, defaulting to the
// title-cased field name with underscores expanded.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	parts := strings.Split(f.Name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Descriptor declares the expected output shape for one platform.
type Descriptor struct {
	Name   string  `yaml:"name" json:"name"`
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`

	// Prompt carries the platform-specific generation instructions.
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
}

// FieldNames returns field names in declaration order.
func (d Descriptor) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Field looks up a field by name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks internal consistency of the descriptor itself. It is
// called once at registry load, before any job can reference the schema.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %q has no fields", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("descriptor %q has an unnamed field", d.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("descriptor %q declares field %q twice", d.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case FieldText, FieldTextList:
		default:
			return fmt.Errorf("descriptor %q field %q has unknown type %q", d.Name, f.Name, f.Type)
		}
		if f.Type == FieldText && (f.MinItems != 0 || f.MaxItems != 0) {
			return fmt.Errorf("descriptor %q field %q: cardinality bounds on a text field", d.Name, f.Name)
		}
		if f.MaxItems != 0 && f.MinItems > f.MaxItems {
			return fmt.Errorf("descriptor %q field %q: min_items %d > max_items %d", d.Name, f.Name, f.MinItems, f.MaxItems)
		}
		if f.RequiredPrefix != "" && f.ForbiddenPrefix != "" {
			return fmt.Errorf("descriptor %q field %q: required_prefix and forbidden_prefix are mutually exclusive", d.Name, f.Name)
		}
	}
	return nil
}

// FormatInstructions renders the output-format section of a generation
// prompt: the expected JSON shape plus every active constraint, so the
// model sees the same rules the validator will enforce.
func (d Descriptor) FormatInstructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single valid JSON object and nothing else. Expected shape:\n{\n")
	for i, f := range d.Fields {
		switch f.Type {
		case FieldTextList:
			fmt.Fprintf(&b, "  %q: [\"...\"]", f.Name)
		default:
			fmt.Fprintf(&b, "  %q: \"...\"", f.Name)
		}
		if i < len(d.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\nRules:\n")
	for _, f := range d.Fields {
		fmt.Fprintf(&b, "- %s: %s", f.Name, f.describeConstraints())
		if f.Description != "" {
			fmt.Fprintf(&b, " %s", f.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (f Field) describeConstraints() string {
	var rules []string
	if f.Required {
		rules = append(rules, "required")
	}
	if f.MaxLength > 0 {
		rules = append(rules, fmt.Sprintf("maximum %d characters", f.MaxLength))
	}
	if f.MinItems > 0 || f.MaxItems > 0 {
		rules = append(rules, fmt.Sprintf("exactly %d-%d items", f.MinItems, f.MaxItems))
	}
	if f.RequiredPrefix != "" {
		rules = append(rules, fmt.Sprintf("every item MUST start with %q", f.RequiredPrefix))
	}
	if f.ForbiddenPrefix != "" {
		rules = append(rules, fmt.Sprintf("items must NOT start with %q", f.ForbiddenPrefix))
	}
	if len(rules) == 0 {
		return "free-form."
	}
	return strings.Join(rules, ", ") + "."
}
