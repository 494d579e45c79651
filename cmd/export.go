package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the vocabulary as CSV",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		output, _ := cmd.Flags().GetString("output")

		a, _, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		writer := cmd.OutOrStdout()
		if output != "-" {
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			file, openErr := os.Create(output)
			if openErr != nil {
				return fmt.Errorf("create %s: %w", output, openErr)
			}
			defer func() {
				if cerr := file.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			writer = file
		}

		if err := a.Vocabulary.ExportCSV(cmd.Context(), writer); err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if output != "-" {
			cmd.PrintErrf("exported to %s\n", output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "-", "output file, - for standard output")
}
