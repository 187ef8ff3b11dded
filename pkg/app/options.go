package app

import (
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/uvm/pkg/log"
)

// NamedFlagSetOptions is implemented by the options of an application. Flags
// are grouped into named sections in the help output.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets of the application, by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate checks the options after Complete.
	Validate() error
}

// LogOptions is implemented by options that carry logging settings. The
// global logger is initialized from them once the options are validated.
type LogOptions interface {
	LogOptions() *log.Options
}
