package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/iksnae/chat-timeline/internal/export"
	"github.com/spf13/cobra"
)

var (
	format      string
	outputDir   string
	exportPages int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <conversation-id>",
	Short: "Export a conversation timeline to a file",
	Long: `Export the timeline of a conversation to jsonl, md, yaml or json.

The file is written to --out as <account>_<conversation>.<ext>. Use --out -
to write to stdout. Use --pages to include more history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID := args[0]

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		c, err := a.client(ctx)
		if err != nil {
			return err
		}
		if err := a.openConversation(ctx, c, conversationID, exportPages); err != nil {
			return err
		}

		transcript := &export.Transcript{
			Account:      c.Key(),
			Conversation: findConversation(c, conversationID),
			ExportedAt:   now(),
			Groups:       c.Timeline(),
		}

		if outputDir == "-" {
			if err := exporter.Export(transcript, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: format, Path: "stdout", Err: err}
			}
			return nil
		}

		path, err := writeExport(exporter, transcript, outputDir)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d messages)\n",
			successStyle.Render("Exported to"), path, internal.CountEvents(transcript.Groups))
		return nil
	},
}

func writeExport(exporter export.Exporter, t *export.Transcript, dir string) (string, error) {
	name := fmt.Sprintf("%s_%s.%s", safeName(t.Account), safeName(t.Conversation.ID), exporter.Extension())
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &internal.ExportError{Format: format, Path: dir, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	w := bufio.NewWriter(f)
	if err := exporter.Export(t, w); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return path, nil
}

// safeName makes a provider id usable as a file name component
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '!', '@', ' ':
			return '_'
		}
		return r
	}, s)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addAccountFlag(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format ("+strings.Join(export.Formats(), ", ")+")")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "exports", "Output directory, or - for stdout")
	exportCmd.Flags().IntVarP(&exportPages, "pages", "n", 1, "Number of history pages to include")
}
