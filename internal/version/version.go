package version

import "fmt"

const (
	// Version is the current version of rss-reader
	Version = "1.5"
)

// GetVersion returns the current version string
func GetVersion() string {
	return fmt.Sprintf("rss-reader %s", Version)
}

// UserAgent is sent with every outbound request.
func UserAgent() string {
	return fmt.Sprintf("rss-reader/%s", Version)
}
