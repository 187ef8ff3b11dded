// Package options holds the command-line options shared by uvm binaries. Each
// struct binds its own flags and validates itself.
package options

import (
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every options struct in this package.
type IOptions interface {
	// Validate returns every problem found, not just the first one.
	Validate() []error

	// AddFlags binds the options to fs.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a host:port pair with a valid port.
func ValidateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q in address %q", port, addr)
	}
	return nil
}

func validateKind(flag, kind string, allowed ...string) error {
	if slices.Contains(allowed, kind) {
		return nil
	}
	return fmt.Errorf("--%s must be one of %v, got %q", flag, allowed, kind)
}
