package remote

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/subosito/gotenv"
)

// Environment variable names, in lookup order. The NEXT_PUBLIC_ variants are
// what a Next.js site keeps in .env.local.
var (
	URLVars = []string{"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"}
	KeyVars = []string{"SUPABASE_SERVICE_ROLE_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"}
)

// Credentials identify a Supabase project.
type Credentials struct {
	URL    string
	Key    string
	Source string // where the values came from, for diagnostics
}

// Configured reports whether both values are present.
func (c Credentials) Configured() bool {
	return c.URL != "" && c.Key != ""
}

// LoadCredentials resolves the project URL and key. Values from getenv win;
// envFile (typically .env.local) only fills what the environment lacks.
// A missing envFile is not an error.
func LoadCredentials(envFile string, getenv func(string) string) (Credentials, error) {
	var file gotenv.Env
	if envFile != "" {
		env, err := gotenv.Read(envFile)
		switch {
		case err == nil:
			file = env
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Credentials{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	url, urlSrc := lookup(URLVars, getenv, file, envFile)
	key, keySrc := lookup(KeyVars, getenv, file, envFile)

	source := urlSrc
	if keySrc != urlSrc && keySrc != "" {
		source = urlSrc + ", " + keySrc
	}
	return Credentials{URL: url, Key: key, Source: source}, nil
}

func lookup(names []string, getenv func(string) string, file gotenv.Env, envFile string) (value, source string) {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v, "environment"
		}
	}
	for _, name := range names {
		if v := file[name]; v != "" {
			return v, envFile
		}
	}
	return "", ""
}
