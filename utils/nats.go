package utils

import (
	"fmt"
	"os"
)

// NatsURL builds the broker URL from the NATS_* environment variables.
func NatsURL() string {
	username := os.Getenv("NATS_USERNAME")
	password := os.Getenv("NATS_PASSWORD")
	hostname := os.Getenv("NATS_HOSTNAME")
	port := os.Getenv("NATS_PORT")

	return fmt.Sprintf("nats://%s:%s@%s:%s", username, password, hostname, port)
}

// EnsurePrefixed namespaces a subject with an environment prefix. An empty
// prefix leaves the subject untouched.
func EnsurePrefixed(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}
