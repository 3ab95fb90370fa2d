package app

import cliflag "k8s.io/component-base/cli/flag"

// CliOptions abstracts configuration options for reading parameters from the
// command line, grouped into named flag sets.
type CliOptions interface {
	// Flags returns the flag sets, one per configuration section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in defaults that depend on other fields.
	Complete() error
	// Validate validates the options.
	Validate() error
}
