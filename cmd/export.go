package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
	"github.com/afslabs/afs-chat/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportStdout bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export local sessions",
	Long: `Export local chat sessions in JSONL, Markdown, YAML, or JSON format.
With an ID only that session is exported; without one every local session
is written to the output directory, one file per session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.bootstrap()

		sessions := a.ctrl.Sessions()
		if len(args) == 1 {
			var match *internal.LocalSession
			for i := range sessions {
				if sessions[i].SessionID == args[0] {
					match = &sessions[i]
					break
				}
			}
			if match == nil {
				return &internal.StorageError{Op: "export", Key: args[0], Err: fmt.Errorf("session not found")}
			}
			sessions = []internal.LocalSession{*match}
		}

		if len(sessions) == 0 {
			fmt.Println(headerStyle.Render("No local sessions to export"))
			return nil
		}

		if exportStdout {
			if len(sessions) > 1 {
				return fmt.Errorf("--stdout requires a single session ID")
			}
			return exporter.Export(&sessions[0], os.Stdout)
		}

		if err := os.MkdirAll(exportOutput, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		for i := range sessions {
			s := &sessions[i]
			path := filepath.Join(exportOutput, fmt.Sprintf("%s.%s", s.SessionID, exporter.Extension()))
			f, err := os.Create(path)
			if err != nil {
				return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
			}
			if err := exporter.Export(s, f); err != nil {
				_ = f.Close()
				return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
			}
			if err := f.Close(); err != nil {
				return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
			}
			fmt.Println(successStyle.Render("Exported ") + idStyle.Render(path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Export format: jsonl, md, yaml, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", ".", "Output directory")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write to stdout instead of a file (single session only)")
}
