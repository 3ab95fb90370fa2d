package app

import "github.com/kart-io/version"

// GetVersion returns the git version stamped into the binary at build time.
func GetVersion() string {
	return version.Get().GitVersion
}
