package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/compensation-engine/compensation"
	"github.com/warp/compensation-engine/payment"
	"github.com/warp/compensation-engine/report"
)

// VerifyCmd checks a backup file and lists what the payment file would skip.
func VerifyCmd() *cobra.Command {
	var backupPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Validate a backup file and preview payment file exclusions",
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBackup(backupPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := book.Summary()

			fmt.Fprintf(out, "%s %d beneficiaries, %d records, net payable %s\n",
				okMark, len(book.Beneficiaries()), s.Count(), compensation.FormatCurrency(s.NetPayable))

			batch, err := payment.Encode(book.Institution(), book.Beneficiaries(), book.Compensations())
			var nvr *payment.NoValidRecordsError
			switch {
			case errors.As(err, &nvr):
				printSkipped(cmd, nvr.Skipped)
				return err
			case err != nil:
				fmt.Fprintf(out, "%s %v\n", failMark, err)
				return err
			}
			printSkipped(cmd, batch.Skipped)
			fmt.Fprintf(out, "%s payment file: %d record(s), total %s\n",
				okMark, batch.Count(), compensation.FormatCurrency(batch.Total))
			return nil
		},
	}
	cmd.Flags().StringVar(&backupPath, "backup", "", "Backup JSON file")
	return cmd
}

// EncodeCmd writes the fixed-width payment file of a backup.
func EncodeCmd() *cobra.Command {
	var backupPath, outPath string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Produce the treasury payment file from a backup",
		Example: `  compctl encode --backup CompensationBackup_20250301120000.json
  compctl encode --backup backup.json --out -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBackup(backupPath)
			if err != nil {
				return err
			}
			batch, err := payment.Encode(book.Institution(), book.Beneficiaries(), book.Compensations())
			if err != nil {
				var nvr *payment.NoValidRecordsError
				if errors.As(err, &nvr) {
					printSkipped(cmd, nvr.Skipped)
				}
				return err
			}
			printSkipped(cmd, batch.Skipped)

			if outPath == "" {
				outPath = payment.FileName(book.Institution())
			}
			if err := writeOutput(cmd.OutOrStdout(), outPath, batch.Bytes()); err != nil {
				return err
			}
			if outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s (%d record(s), total %s)\n",
					okMark, outPath, batch.Count(), compensation.FormatCurrency(batch.Total))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backupPath, "backup", "", "Backup JSON file")
	cmd.Flags().StringVar(&outPath, "out", "", `Output path ("-" for stdout, default Payment_File_<year>.txt)`)
	return cmd
}

// ReportCmd writes the XLSX and/or HTML report of a backup.
func ReportCmd() *cobra.Command {
	var backupPath, xlsxPath, htmlPath string
	var forPrint bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Produce the compensation report (XLSX and/or HTML) from a backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBackup(backupPath)
			if err != nil {
				return err
			}
			rep := report.FromBook(book)
			if xlsxPath == "" && htmlPath == "" {
				xlsxPath = report.XLSXFileName(rep.Institution)
			}

			if xlsxPath != "" {
				data, err := rep.XLSX()
				if err != nil {
					return err
				}
				if err := writeOutput(cmd.OutOrStdout(), xlsxPath, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s\n", okMark, xlsxPath)
			}
			if htmlPath != "" {
				data, err := rep.HTML(forPrint)
				if err != nil {
					return err
				}
				if err := writeOutput(cmd.OutOrStdout(), htmlPath, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s\n", okMark, htmlPath)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", rep.Totals.Words())
			return nil
		},
	}
	cmd.Flags().StringVar(&backupPath, "backup", "", "Backup JSON file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Spreadsheet output path")
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML output path")
	cmd.Flags().BoolVar(&forPrint, "print", false, "Add signature blocks to the HTML report")
	return cmd
}

func printSkipped(cmd *cobra.Command, skipped []payment.Skipped) {
	reason := color.New(color.FgYellow)
	for _, s := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s skipped #%d %s: %s (%s)\n",
			warnMark, s.BeneficiaryID, s.Name, reason.Sprint(s.Reason), s.Detail)
	}
}
