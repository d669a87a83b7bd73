package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of the environment variables consulted for every
// parameter: MLOQ_<PARAMETER_NAME>.
const EnvPrefix = "MLOQ"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// EnvKey returns the variable name consulted for a parameter name.
// The namespace is deliberately not part of the key.
func EnvKey(prefix, name string) string {
	key := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "_") + "_" + key
}

// OSLookup reads variables from the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup reads variables from a fixed map. Tests and embedders use it
// instead of the process environment.
func MapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// LoadDotEnv loads .env style files into the process environment. Variables
// that are already set are left untouched. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}
