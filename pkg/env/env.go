package env

import "os"

// Get reads key from the process environment. Unset and empty both fall
// back, so a blank export cannot blank out a default.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
