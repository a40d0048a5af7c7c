package exec

import (
	"encoding/json"
	"os"

	"github.com/dennishilgert/benchvm/cmd/benchvm/app"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/signals"
	"github.com/spf13/cobra"
)

var log = logger.NewLogger("benchvm.cli.exec")

var Command = &cobra.Command{
	Use:   "exec [flags] -- args",
	Short: "Run a guest vm once",
	Long:  "Run a guest vm once with the given arguments and print the dimensions derived by the host vm",
	Args:  cobra.MinimumNArgs(1),
	Run:   run,
}

var cmdFlags = ParseFlags()

func initFlags() {
	Command.Flags().AddFlagSet(cmdFlags.FlagSet())
}

func init() {
	initFlags()
}

func run(cobraCommand *cobra.Command, args []string) {
	logger.ReadAndApply(cobraCommand, log)
	os.Exit(processCommand(args))
}

func processCommand(args []string) int {
	f := cmdFlags.CommandFlags()

	a, err := app.New(app.Options{Output: os.Stdout})
	if err != nil {
		log.Errorf("failed to set up benchvm: %v", err)
		return 1
	}
	defer a.Close()

	result, err := a.Exec(signals.Context(), app.ExecOptions{
		HostKind: f.HostKind,
		VmName:   f.VmName,
		VmConfig: f.VmConfig,
		Cwd:      f.Cwd,
		Args:     args,
	})
	if err != nil {
		log.Errorf("error while running %s: %v", f.VmName, err)
		return 1
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result.Dimensions); err != nil {
		log.Errorf("failed to print dimensions: %v", err)
		return 1
	}
	log.Infof("%s exited with code %d", f.VmName, result.Code)
	return result.Code
}
