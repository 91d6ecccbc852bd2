package instance

import (
	"fmt"
	"os"
	"strings"
)

// GetID returns an identifier for this process, used as the owner value of
// distributed locks. WORKER_ID wins, then the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("WORKER_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	return "worker-0"
}
