package cli

import "flag"

// NewUsageFlagSet returns a ContinueOnError FlagSet whose Usage prints the
// grouped help.
func NewUsageFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { Usage(fs.Output(), name, fs) }
	return fs
}
