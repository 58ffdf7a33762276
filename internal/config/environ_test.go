package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// TestParseEnviron_Property checks that any KEY=VALUE pair survives the
// environ round trip, including values that contain "=".
func TestParseEnviron_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("value is preserved verbatim", prop.ForAll(
		func(key, left, right string) bool {
			value := left + "=" + right
			env := ParseEnviron([]string{"OTHER=x", key + "=" + value})
			return env[key] == value
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("later entry wins", prop.ForAll(
		func(key, first, second string) bool {
			env := ParseEnviron([]string{key + "=" + first, key + "=" + second})
			return env[key] == second
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("entries without '=' are skipped", prop.ForAll(
		func(entry string) bool {
			return len(ParseEnviron([]string{entry})) == 0
		},
		gen.AlphaString().SuchThat(func(s string) bool { return !strings.Contains(s, "=") }),
	))

	properties.TestingRun(t)
}

func TestReadCIEnv(t *testing.T) {
	ci := ReadCIEnv([]string{
		"GITHUB_TOKEN=ghp_abcdefghijklmnopqrstuvwxyz",
		"GITHUB_REPOSITORY=octo/bench",
		"GITHUB_SHA=0123456789abcdef",
		"GITHUB_SERVER_URL=https://ghe.example.com",
		"GITHUB_ACTIONS=true",
	})

	assert.Equal(t, "ghp_abcdefghijklmnopqrstuvwxyz", ci.Token)
	assert.Equal(t, "octo/bench", ci.Repository)
	assert.Equal(t, "0123456789abcdef", ci.SHA)
	assert.Equal(t, "https://ghe.example.com", ci.ServerURL)
	assert.Empty(t, ci.APIURL)
	assert.True(t, ci.Actions)

	assert.False(t, ReadCIEnv([]string{"GITHUB_ACTIONS=false"}).Actions)
	assert.False(t, ReadCIEnv(nil).Actions)
}

func TestLookup(t *testing.T) {
	v, ok := Lookup([]string{"EMPTY="}, "EMPTY")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = Lookup([]string{"EMPTY="}, "MISSING")
	assert.False(t, ok)
}

func TestResolvePath(t *testing.T) {
	dir := filepath.FromSlash("/work")

	path, explicit := ResolvePath("custom.yaml", []string{"BENCHKEEP_CONFIG=env.yaml"}, dir)
	assert.Equal(t, filepath.Join(dir, "custom.yaml"), path)
	assert.True(t, explicit)

	path, explicit = ResolvePath("", []string{"BENCHKEEP_CONFIG=/etc/benchkeep.yaml"}, dir)
	assert.Equal(t, "/etc/benchkeep.yaml", path)
	assert.True(t, explicit)

	path, explicit = ResolvePath("", nil, dir)
	assert.Equal(t, filepath.Join(dir, DefaultFile), path)
	assert.False(t, explicit)
}
