package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/compensation-engine/compensation"
)

// RIPCmd derives routing ids from postal account numbers.
func RIPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rip ACCOUNT...",
		Short: "Derive the 20-digit routing id (RIP) of postal accounts",
		Example: `  compctl rip 4821
  compctl rip 1234567890 96`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, account := range args {
				rip, err := compensation.DeriveRoutingID(account)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %s\n", failMark, account, compensation.RoutingIDText(account))
					continue
				}
				fmt.Fprintf(out, "%s %s: %s\n", okMark, account, rip)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d account(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

// QuarterCmd evaluates the quarterly compensation formula.
func QuarterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quarter NOFEES VALUE CONTRIB",
		Short: "Compute one quarter's compensation: max(0, (nofees + value - contrib) / 2)",
		Example: `  compctl quarter 4200 680 1500
  compctl quarter "100,5" 50 0`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := compensation.ComputeQuarter(
				compensation.ParseFigure(args[0]),
				compensation.ParseFigure(args[1]),
				compensation.ParseFigure(args[2]),
			)
			fmt.Fprintln(cmd.OutOrStdout(), compensation.FormatCurrency(amount))
			return nil
		},
	}
}
