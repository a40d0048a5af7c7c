package flags

import (
	"github.com/spf13/pflag"
)

// FlagParser holds the flag set of a single command.
type FlagParser struct {
	flagSet *pflag.FlagSet
}

// NewFlagParser creates a sorted flag set named after the command.
func NewFlagParser(name string) *FlagParser {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.SortFlags = true

	return &FlagParser{
		flagSet: fs,
	}
}

func (f *FlagParser) FlagSet() *pflag.FlagSet {
	return f.flagSet
}
