package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the vocabulary with the words in a .json, .csv or .xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Clean(args[0])
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()

		a, _, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.Vocabulary.Import(cmd.Context(), filepath.Base(path), file)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		cmd.Printf("imported %d words from %s\n", resp.Count, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
