package run

import (
	"io"
	"os"

	"github.com/dennishilgert/benchvm/cmd/benchvm/app"
	"github.com/dennishilgert/benchvm/internal/app/bench"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/signals"
	"github.com/spf13/cobra"
)

var log = logger.NewLogger("benchvm.cli.run")

var Command = &cobra.Command{
	Use:   "run [flags] [-- extra args]",
	Short: "Run a benchmark suite",
	Long:  "Run every benchmark of a suite file on a guest vm and publish the results to the configured sinks",
	Run:   run,
}

var cmdFlags = ParseFlags()

func initFlags() {
	Command.Flags().AddFlagSet(cmdFlags.FlagSet())
	Command.MarkFlagRequired("suite-file")
}

func init() {
	initFlags()
}

func run(cobraCommand *cobra.Command, args []string) {
	logger.ReadAndApply(cobraCommand, log)
	os.Exit(processCommand(args))
}

func processCommand(extraArgs []string) int {
	f := cmdFlags.CommandFlags()

	var output io.Writer
	if f.ShowOutput {
		output = os.Stdout
	}
	a, err := app.New(app.Options{Output: output})
	if err != nil {
		log.Errorf("failed to set up benchvm: %v", err)
		return 1
	}
	defer a.Close()

	ctx := signals.Context()
	summary, err := a.RunSuite(ctx, app.RunOptions{
		SuiteFile:  f.SuiteFile,
		HostKind:   f.HostKind,
		VmName:     f.VmName,
		VmConfig:   f.VmConfig,
		Cwd:        f.Cwd,
		ExtraArgs:  extraArgs,
		Benchmarks: f.Benchmarks,
	})
	return exitCode(f.SuiteFile, summary, err)
}

// exitCode logs the outcome of a suite run and maps it to the exit code of the command.
func exitCode(suiteFile string, summary bench.Summary, err error) int {
	if err != nil {
		log.Errorf("error while running suite %s: %v", suiteFile, err)
		return 1
	}
	if summary.Incomplete() {
		log.Errorf("run %s: only %d of %d benchmarks ran", summary.RunUuid, len(summary.Datapoints), summary.Benchmarks)
		return 1
	}
	if failed := summary.Failed(); failed > 0 {
		log.Errorf("run %s: %d of %d benchmarks failed", summary.RunUuid, failed, len(summary.Datapoints))
		return 1
	}
	log.Infof("run %s: %d benchmarks succeeded", summary.RunUuid, len(summary.Datapoints))
	return 0
}
