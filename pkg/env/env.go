package env

import (
	"os"
	"strings"
)

// Prefix namespaces the service's own variables.
const Prefix = "LIBRARY_"

// Get returns LIBRARY_<key>, then <key>, then fallback. Blank values count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
