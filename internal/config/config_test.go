package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		in      string
		want    Artifact
		wantErr bool
	}{
		{in: "com.strumenta:rpg-parser:2.1.52", want: Artifact{Group: "com.strumenta", Name: "rpg-parser", Version: "2.1.52"}},
		{in: " a:b:c ", want: Artifact{Group: "a", Name: "b", Version: "c"}},
		{in: "a:b", wantErr: true},
		{in: "a::c", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseArtifact(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Group+":"+tt.want.Name+":"+tt.want.Version, got.String())
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	p := &ParserConfig{}
	ApplyParserDefaults(p)
	assert.Equal(t, DefaultParserTimeout, p.Timeout)

	p = &ParserConfig{Timeout: time.Second}
	ApplyParserDefaults(p)
	assert.Equal(t, time.Second, p.Timeout)

	r := &RegistryConfig{URL: "https://example.test/maven"}
	ApplyRegistryDefaults(r)
	assert.Equal(t, "https://example.test/maven", r.URL)
	assert.Equal(t, DefaultParserArtifact, r.Artifact)

	ApplyParserDefaults(nil)
	ApplyRegistryDefaults(nil)
}

func TestParserConfig_Enabled(t *testing.T) {
	assert.False(t, ParserConfig{}.Enabled())
	assert.False(t, ParserConfig{Command: "   "}.Enabled())
	assert.True(t, ParserConfig{Command: "java -jar rpg-parser.jar"}.Enabled())
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("out_dir: x\n"), 0o644))

	assert.Equal(t, root, FindProjectRoot(nested, 10))
	assert.Equal(t, "", FindProjectRoot(nested, 2))
	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), FindConfigFile(root))
	assert.Equal(t, "", FindConfigFile(nested))
}
