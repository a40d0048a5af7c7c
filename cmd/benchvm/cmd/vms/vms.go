package vms

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dennishilgert/benchvm/cmd/benchvm/app"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/spf13/cobra"
)

var log = logger.NewLogger("benchvm.cli.vms")

var Command = &cobra.Command{
	Use:   "vms",
	Short: "List the registered guest vms",
	Long:  "List the guest vms of the Java vm registry ordered by priority",
	Run:   run,
}

func run(cobraCommand *cobra.Command, args []string) {
	logger.ReadAndApply(cobraCommand, log)
	os.Exit(processCommand())
}

func processCommand() int {
	a, err := app.New(app.Options{})
	if err != nil {
		log.Errorf("failed to set up benchvm: %v", err)
		return 1
	}
	defer a.Close()

	if err := writeEntries(os.Stdout, a.Registry()); err != nil {
		log.Errorf("failed to list vms: %v", err)
		return 1
	}
	return 0
}

func writeEntries(out io.Writer, registry *vm.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "REGISTRY\tNAME\tCONFIG\tSUITE\tPRIORITY\n")
	for _, entry := range registry.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", registry.ShortName(), entry.Vm.Name(), entry.Vm.ConfigName(), entry.Suite, entry.Priority)
	}
	return w.Flush()
}
