// Package plango provides the version information for plan-go.
package plango

// Version is the current version of plan-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
