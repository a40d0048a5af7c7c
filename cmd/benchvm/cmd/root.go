package cmd

import (
	"os"

	"github.com/dennishilgert/benchvm/cmd/benchvm/cmd/exec"
	"github.com/dennishilgert/benchvm/cmd/benchvm/cmd/run"
	"github.com/dennishilgert/benchvm/cmd/benchvm/cmd/vms"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/spf13/cobra"
)

var log = logger.NewLogger("benchvm.cli")

var rootCommand = &cobra.Command{
	Use:   "benchvm",
	Short: "Run benchmarks on guest vms",
	Long:  "Run JavaScript benchmark suites on the graal-js guest vm, locally or inside a container",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

var logFlags = logger.ParseFlags()

func initFlags() {
	rootCommand.PersistentFlags().AddFlagSet(logFlags.FlagSet())
}

func init() {
	initFlags()

	rootCommand.AddCommand(vms.Command)
	rootCommand.AddCommand(run.Command)
	rootCommand.AddCommand(exec.Command)
}

func Run() {
	if err := rootCommand.Execute(); err != nil {
		log.Fatal(err)
	}
}
