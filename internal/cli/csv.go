package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newCSVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "CSV export of the current board",
	}

	var out string
	download := &cobra.Command{
		Use:   "download",
		Short: "Save the server's CSV export byte for byte",
		Long: `Save the server's CSV export byte for byte.

The default file name is retroquest-<team>-<date>.csv in the current directory.
Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := client.CSV(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(b)
				return err
			}
			path := out
			if path == "" {
				path = csvFileName(client.TeamID(), time.Now())
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return writeErr(cmd, err)
				}
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return writeErr(cmd, fmt.Errorf("write csv: %w", err))
			}
			return writeOut(cmd, app, map[string]any{"path": path, "bytes": len(b)})
		},
	}
	download.Flags().StringVarP(&out, "out", "o", "", "Output file (- for stdout)")
	cmd.AddCommand(download)

	return cmd
}

func csvFileName(team string, now time.Time) string {
	return fmt.Sprintf("retroquest-%s-%s.csv", team, now.Format("2006-01-02"))
}
