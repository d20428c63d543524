// Command pisa-sim runs a decoded P-ISA instruction stream against a set
// of test vectors or a memory dump, reporting validation and (optionally)
// scheduler results.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pisa-sim",
	Short: "Functional simulator and performance modeler for the P-ISA instruction set",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("data", "", "path to a JSON test-vector document (modulus chain, inputs, immediates, twiddles, outputs)")
	runCmd.Flags().String("input-dump", "", "path to a CSV memory dump to load instead of --data")
	runCmd.Flags().String("output-dump", "", "path to write the post-execution memory dump")
	runCmd.Flags().String("report", "", "path to write the validation/scheduler report (default: stdout)")
	runCmd.Flags().String("hardware-model", "example", "named hwmodel.Model to use for the scheduler report")
	runCmd.Flags().Bool("layered", false, "execute layer-by-layer with goroutine fan-out within a layer, instead of linearly")
	runCmd.Flags().Bool("schedule", false, "also run the cycle-accurate scheduler and include its report")
	runCmd.Flags().Bool("verbose", false, "include every mismatched value in the validation report, not just pass/fail per output")
	runCmd.Flags().Int("register-width", 8192, "Multi-Register width W")
	runCmd.Flags().Bool("debug", false, "enable the engine's stricter Montgomery-add precondition checks")
	runCmd.Flags().Bool("trace", false, "enable the Instruction Trace")
}

var runCmd = &cobra.Command{
	Use:   "run <instructions.pisa>",
	Short: "Decode and execute a P-ISA instruction file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func fatalf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	log.Error(msg)
	return fmt.Errorf("%s", msg)
}
