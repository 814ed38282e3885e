package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/flanksource/clicky"
	"github.com/spf13/cobra"

	"github.com/glebziz/rtest/fixtures"
)

var (
	runFilter  string
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <table-files...>",
	Short: "Run the cases of markdown and YAML table files",
	Long: `Loads table files, expands every group into test units and verifies each
case with the group's CEL expression.

EXAMPLES:
  # Run every table below testdata
  rtest run 'testdata/**/*.md'

  # Run the cases of one group
  rtest run strings.md --filter 'string_length/*'`,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runTables,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:          "list <table-files...>",
	Short:        "List the test units of table files without running them",
	Args:         cobra.MinimumNArgs(1),
	RunE:         listTables,
	SilenceUsage: true,
}

func newRunner(args []string) (*fixtures.Runner, error) {
	wd, err := getWorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	runner := fixtures.NewRunner(fixtures.RunnerOptions{
		Paths:   args,
		Filter:  runFilter,
		WorkDir: wd,
		Timeout: runTimeout,
	})
	if err := runner.Load(); err != nil {
		return nil, err
	}
	return runner, nil
}

func runTables(cmd *cobra.Command, args []string) error {
	runner, err := newRunner(args)
	if err != nil {
		return err
	}
	root, err := runner.Run()
	if root != nil {
		fmt.Println(clicky.MustFormat(*root))
	}
	if errors.Is(err, fixtures.ErrFailed) {
		exitCode = 1
		return nil
	}
	return err
}

func listTables(cmd *cobra.Command, args []string) error {
	runner, err := newRunner(args)
	if err != nil {
		return err
	}
	fmt.Println(clicky.MustFormat(*runner.Tree()))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{runCmd, listCmd} {
		c.Flags().StringVar(&runFilter, "filter", "", "Only cases whose qualified name matches this glob")
		rootCmd.AddCommand(c)
	}
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "Timeout per table file")
}
