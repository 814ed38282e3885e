package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/commons/logger"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/glebziz/rtest/fixtures"
	"github.com/glebziz/rtest/gen"
)

var errOutOfDate = errors.New("generated file is out of date")

var genOptions struct {
	output string
	pkg    string
	check  bool
}

var genCmd = &cobra.Command{
	Use:   "gen <table-file>",
	Short: "Generate a Go test file from a table file",
	Long: `Renders a table file into a Go test file declaring one table.New builder,
one case record and one Test function per group.

EXAMPLES:
  # Writes strings_test.go next to strings.md
  rtest gen strings.md

  # Fail when the checked in file differs from what would be generated
  rtest gen strings.md --check`,
	Args:         cobra.ExactArgs(1),
	RunE:         runGen,
	SilenceUsage: true,
}

func runGen(cmd *cobra.Command, args []string) error {
	wd, err := getWorkingDir()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(wd, path)
	}

	file, err := fixtures.ParseFile(path)
	if err != nil {
		return err
	}
	out, err := gen.GenerateFile(file, gen.Options{Package: genOptions.pkg})
	if err != nil {
		return err
	}

	target := genOptions.output
	if target == "" {
		target = strings.TrimSuffix(path, filepath.Ext(path)) + "_test.go"
	}
	if target == "-" {
		_, err := os.Stdout.Write(out)
		return err
	}

	if genOptions.check {
		existing, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("%w: %v", errOutOfDate, err)
		}
		if string(existing) != string(out) {
			fmt.Fprintln(os.Stderr, clicky.MustFormat(diffText(string(existing), string(out))))
			return fmt.Errorf("%w: %s", errOutOfDate, target)
		}
		logger.Infof("%s is up to date", target)
		return nil
	}

	if err := os.WriteFile(target, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	logger.Infof("Generated %s", target)
	return nil
}

// diffText renders the changed lines between the existing and the generated
// file.
func diffText(oldStr, newStr string) api.Text {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldStr, newStr)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	result := clicky.Text("")
	for _, diff := range diffs {
		prefix, style := "", ""
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix, style = "-", "text-red-500"
		case diffmatchpatch.DiffInsert:
			prefix, style = "+", "text-green-500"
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			result = result.Append(prefix+line, style).NewLine()
		}
	}
	return result
}

func init() {
	genCmd.Flags().StringVarP(&genOptions.output, "output", "o", "", "Output file, - for stdout (default <table-file>_test.go)")
	genCmd.Flags().StringVar(&genOptions.pkg, "package", "", "Package of the generated file")
	genCmd.Flags().BoolVar(&genOptions.check, "check", false, "Compare with the existing output instead of writing it")
	rootCmd.AddCommand(genCmd)
}
