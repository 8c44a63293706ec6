/*
cli.go - compctl command tree

PURPOSE:
  Offline access to the compensation engine. Operators use it to check
  postal accounts, evaluate the quarterly formula, and produce the payment
  file or reports straight from a backup without running the server.

COMMANDS:
  rip ACCOUNT...      Derive routing ids
  quarter N V C       Evaluate max(0, (N + V - C) / 2)
  verify  --backup    Validate a backup and preview exclusions
  encode  --backup    Write Payment_File_<year>.txt
  report  --backup    Write the XLSX and/or HTML report

OUTPUT:
  Results go to stdout; progress and skipped records go to stderr so that
  "--out -" can be piped.

SEE ALSO:
  - cmd/compctl/main.go: Entry point
  - payment/encoder.go: Payment file layout
  - report/report.go: Report model
*/
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/compensation-engine/compensation"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// RootCmd assembles every compctl subcommand.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "compctl",
		Short: "Utility-cost compensation toolkit",
		Long: `compctl works offline on backup files produced by the compensation server.

It derives routing ids (RIP), evaluates the quarterly compensation formula,
and produces the payment file and reports from a backup.`,
		SilenceUsage: true,
	}

	root.AddCommand(RIPCmd())
	root.AddCommand(QuarterCmd())
	root.AddCommand(VerifyCmd())
	root.AddCommand(EncodeCmd())
	root.AddCommand(ReportCmd())
	return root
}

// loadBackup restores a backup file into a fresh book.
func loadBackup(path string) (*compensation.Book, error) {
	if path == "" {
		return nil, fmt.Errorf("--backup is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	book := compensation.NewBook(time.Now())
	if err := book.RestoreJSON(data); err != nil {
		return nil, err
	}
	return book, nil
}

// writeOutput writes data to path, or to w when path is "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
