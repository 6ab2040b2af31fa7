package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/socialforge/types"
)

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{"facebook", "instagram", "linkedin", "pinterest", "x"}, r.Names())

	d, err := r.Get("instagram")
	require.NoError(t, err)
	assert.Equal(t, []string{"caption", "hashtags", "alt_text"}, d.FieldNames())
}

func TestRegistryUnknownSchema(t *testing.T) {
	_, err := Builtin().Get("myspace")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownSchema, types.GetErrorCode(err))
	assert.True(t, types.IsConfiguration(err))
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	d := Descriptor{Name: "dup", Fields: []Field{{Name: "body", Type: FieldText, Required: true}}}
	_, err := NewRegistry(d, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadFileMergesAndShadows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schemas:
  - name: instagram
    title: Instagram (short)
    fields:
      - name: caption
        type: text
        required: true
        max_length: 500
  - name: mastodon
    title: Mastodon
    fields:
      - name: status
        type: text
        required: true
        max_length: 500
      - name: hashtags
        type: text_list
        min_items: 1
        max_items: 5
        required_prefix: "#"
`), 0o644))

	merged, err := Builtin().LoadFile(path)
	require.NoError(t, err)

	// The file's instagram shadows the built-in one.
	ig, err := merged.Get("instagram")
	require.NoError(t, err)
	assert.Equal(t, []string{"caption"}, ig.FieldNames())
	assert.Equal(t, 500, ig.Fields[0].MaxLength)

	// New platform is available, built-ins survive.
	_, err = merged.Get("mastodon")
	require.NoError(t, err)
	_, err = merged.Get("pinterest")
	require.NoError(t, err)

	// The receiver is untouched.
	orig, err := Builtin().Get("instagram")
	require.NoError(t, err)
	assert.Len(t, orig.Fields, 3)
}

func TestLoadFileRejectsInvalidDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schemas:
  - name: broken
    fields:
      - name: tags
        type: text_list
        required_prefix: "#"
        forbidden_prefix: "#"
`), 0o644))

	_, err := Builtin().LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfig, types.GetErrorCode(err))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Builtin().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfig, types.GetErrorCode(err))
}
