package config

import (
	"path/filepath"
	"strings"
)

// Environment variables read from the environ slice handed to the process.
const (
	EnvConfig     = "BENCHKEEP_CONFIG"
	EnvToken      = "GITHUB_TOKEN"
	EnvRepository = "GITHUB_REPOSITORY"
	EnvSHA        = "GITHUB_SHA"
	EnvServerURL  = "GITHUB_SERVER_URL"
	EnvAPIURL     = "GITHUB_API_URL"
	EnvActions    = "GITHUB_ACTIONS"
)

// DefaultFile is looked up in the working directory when no config path is given.
const DefaultFile = ".benchkeep.yaml"

// CIEnv is the subset of the GitHub Actions environment benchkeep cares about.
type CIEnv struct {
	Token      string
	Repository string // owner/repo
	SHA        string
	ServerURL  string
	APIURL     string
	Actions    bool
}

// ReadCIEnv extracts the CI snapshot from an environ slice ("KEY=VALUE").
func ReadCIEnv(environ []string) CIEnv {
	env := ParseEnviron(environ)
	return CIEnv{
		Token:      env[EnvToken],
		Repository: env[EnvRepository],
		SHA:        env[EnvSHA],
		ServerURL:  env[EnvServerURL],
		APIURL:     env[EnvAPIURL],
		Actions:    isTrue(env[EnvActions]),
	}
}

// ParseEnviron converts an environ slice into a map. Entries without "=" are
// skipped, values may themselves contain "=", and a later entry wins.
func ParseEnviron(environ []string) map[string]string {
	result := make(map[string]string, len(environ))
	for _, entry := range environ {
		idx := strings.Index(entry, "=")
		if idx == -1 {
			continue
		}
		result[entry[:idx]] = entry[idx+1:]
	}
	return result
}

// Lookup returns the value of name in environ and whether it was set.
func Lookup(environ []string, name string) (string, bool) {
	v, ok := ParseEnviron(environ)[name]
	return v, ok
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ResolvePath picks the config file location: the flag value, else
// BENCHKEEP_CONFIG, else DefaultFile in dir. Relative paths are joined to dir.
// explicit is false only for the DefaultFile fallback, which may be absent.
func ResolvePath(flagValue string, environ []string, dir string) (path string, explicit bool) {
	if flagValue != "" {
		return absolute(flagValue, dir), true
	}
	if v, ok := Lookup(environ, EnvConfig); ok && v != "" {
		return absolute(v, dir), true
	}
	return filepath.Join(dir, DefaultFile), false
}

func absolute(path, dir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
