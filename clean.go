package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/wa-group-importer/internal/utils"
)

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file]",
		Short: "Normalize and deduplicate a list of numbers without importing them",
		Long: "Reads numbers separated by newlines, commas or semicolons from file " +
			"(or stdin) and prints the canonical numbers an import would use, one per line.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runClean(in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runClean(in io.Reader, out, summary io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	numbers := utils.NewNormalizer(utils.India).ParseNumbers(string(raw))
	for _, n := range numbers {
		if _, err := fmt.Fprintln(out, n); err != nil {
			return err
		}
	}

	if len(numbers) == 0 {
		return fmt.Errorf("no valid numbers found after cleaning")
	}
	fmt.Fprintf(summary, "%d unique valid numbers\n", len(numbers))
	return nil
}
