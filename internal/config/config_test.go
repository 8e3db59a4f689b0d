package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformEnv(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"IDT__IDTOKEN__CERTS_URL", "idtoken.certsUrl"},
		{"IDT__IDTOKEN__HTTP_TIMEOUT", "idtoken.httpTimeout"},
		{"IDT__IDTOKEN__CACHE__ENABLED", "idtoken.cache.enabled"},
		{"IDT__IDTOKEN__CACHE__MIN_TTL", "idtoken.cache.minTtl"},
		{"IDT__FOO", "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, TransformEnv(tt.in))
		})
	}
}

func TestSearchForConfig(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg := filepath.Join(dir, "idtoken.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("idtoken:\n  cache:\n    enabled: true\n"), 0o644))

	assert.Equal(t, cfg, SearchForConfig("idtoken.yaml", nested))
	assert.Empty(t, SearchForConfig("no-such-file.yaml", t.TempDir()))
}

func TestEnsureDefaultsLoaded(t *testing.T) {
	RegisterKeys(
		KeyInfo{Key: "test.alpha", Type: "string", Default: "a"},
		KeyInfo{Key: "test.beta", Type: "string", Default: "b"},
		KeyInfo{Key: "test.gamma", Type: "string"},
	)

	k := koanf.New(".")
	require.NoError(t, k.Set("test.beta", "overridden"))
	EnsureDefaultsLoaded(k)

	assert.Equal(t, "a", k.String("test.alpha"))
	assert.Equal(t, "overridden", k.String("test.beta"))
	assert.False(t, k.Exists("test.gamma"))
}

func TestValidateKeys(t *testing.T) {
	RegisterKeys(KeyInfo{Key: "test.certsUrl", Type: "string"})

	k := koanf.New(".")
	require.NoError(t, k.Set("test.certUrl", "oops"))
	require.NoError(t, k.Set("unrelated.key", "ignored"))

	warnings := ValidateKeys(k, "test")
	require.Len(t, warnings, 1)
	assert.Equal(t, "test.certUrl", warnings[0].Key)
	assert.Contains(t, warnings[0].Suggestions, "test.certsUrl")
	assert.Contains(t, warnings[0].String(), "not a known config key")
}
