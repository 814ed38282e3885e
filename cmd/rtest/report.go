package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/flanksource/clicky"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glebziz/rtest/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [trace-file]",
	Short: "Summarize a RUN/PASS/FAIL trace",
	Long: `Reads the trace written by table tests from a file or stdin and prints the
result of every unit.

EXAMPLES:
  go test ./... -v | rtest report
  rtest report trace.log`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runReport,
	SilenceUsage: true,
}

func runReport(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		in = f
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("expects a trace on stdin or a trace file argument")
	}

	rep, err := report.Parse(in)
	if err != nil {
		return err
	}
	fmt.Println(clicky.MustFormat(*rep))
	if !rep.Summary().OK() {
		exitCode = 1
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
