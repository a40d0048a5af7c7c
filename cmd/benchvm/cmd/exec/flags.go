package exec

import (
	"github.com/dennishilgert/benchvm/cmd/benchvm/app"
	"github.com/dennishilgert/benchvm/internal/app/graaljs"
	"github.com/dennishilgert/benchvm/pkg/flags"
	"github.com/spf13/pflag"
)

type commandFlags struct {
	VmName   string
	VmConfig string
	HostKind string
	Cwd      string
}

type parsedFlags struct {
	cmdFlags *commandFlags
	flagSet  *pflag.FlagSet
}

func ParseFlags() *parsedFlags {
	var f commandFlags

	parser := flags.NewFlagParser("exec")
	parser.FlagSet().StringVar(&f.VmName, "vm", graaljs.VmName, "Name of the guest vm")
	parser.FlagSet().StringVar(&f.VmConfig, "vm-config", "", "Configuration of the guest vm, the one with the highest priority if empty")
	parser.FlagSet().StringVar(&f.HostKind, "host", app.HostLocal, "Host vm the guest vm runs on (local or container)")
	parser.FlagSet().StringVar(&f.Cwd, "cwd", ".", "Working directory of the guest vm")

	return &parsedFlags{
		cmdFlags: &f,
		flagSet:  parser.FlagSet(),
	}
}

func (p *parsedFlags) CommandFlags() *commandFlags {
	return p.cmdFlags
}

func (p *parsedFlags) FlagSet() *pflag.FlagSet {
	return p.flagSet
}
