package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tellsiddh/collections/internal/app"
	"github.com/tellsiddh/collections/internal/config"
	"github.com/tellsiddh/collections/internal/logger"
)

var (
	exportOut  string
	importFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the collection as JSON",
	Long: `Write the whole collection in the same format as the web export.

Examples:
  collections export
  collections export --out my-collections.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the collection with an exported file",
	Long: `Replace the whole collection with the items of an export file.
Files that are not a JSON array of items are rejected and the
collection is left untouched.

Examples:
  collections import --file my-collections.json
  cat my-collections.json | collections import --file -`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
	importCmd.Flags().StringVar(&importFile, "file", "", "Export file to import, - for stdin")
	_ = importCmd.MarkFlagRequired("file")
}

func runExport(cmd *cobra.Command, args []string) error {
	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	data, err := storage.Store.Export(cmd.Context())
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported collection to %s\n", exportOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readImport(cmd, importFile)
	if err != nil {
		return err
	}

	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	n, err := storage.Store.Import(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items\n", n)
	return nil
}

func readImport(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func openStorage() (*app.Storage, error) {
	cfg := config.Load()
	// Keep stdout clean for piping.
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	return app.OpenStorage(cfg, log)
}
