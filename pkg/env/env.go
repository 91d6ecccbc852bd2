package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// GetPrefixed checks the STOREFRONT_ prefixed key before the bare key.
func GetPrefixed(key, fallback string) string {
	if val := Get("STOREFRONT_"+key, ""); val != "" {
		return val
	}
	return Get(key, fallback)
}
