package api

import "flag"

// Flags encapsulates the standard flags that should be added to all
// commands that issue API requests.
type Flags struct {
	dump               *bool
	insecureSkipVerify *bool
}

// NewFlags instantiates a new Flags structure and attaches flags to the
// given flag set.
func NewFlags(flagSet *flag.FlagSet) *Flags {
	return &Flags{
		dump:               flagSet.Bool("dump-requests", false, "Log HTTP requests and responses to stderr"),
		insecureSkipVerify: flagSet.Bool("insecure-skip-verify", false, "Skip validation of TLS certificates against trusted chains"),
	}
}

func defaultFlags() *Flags {
	f := false
	return &Flags{
		dump:               &f,
		insecureSkipVerify: &f,
	}
}
