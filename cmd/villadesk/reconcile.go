package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/villadesk/internal/actor"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-payouts",
	Short: "Create missing owner payout expenses and owner accruals",
	Long: `Scans every reservation with an owner price and creates the payout expense
and the owner accrual it is missing. Running it again changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var reservations reservationdomain.Service
		return runTask(cmd, func(ctx context.Context) error {
			result, err := reservations.ReconcilePayouts(actor.WithActor(ctx, actor.System()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanned:         %d\n", result.Scanned)
			fmt.Fprintf(out, "payouts created: %d\n", result.PayoutsCreated)
			fmt.Fprintf(out, "owners accrued:  %d\n", result.OwnersAccrued)
			fmt.Fprintf(out, "skipped:         %d\n", result.Skipped)
			if len(result.RepairedInvoices) > 0 {
				fmt.Fprintf(out, "repaired:        %s\n", strings.Join(result.RepairedInvoices, ", "))
			}
			return nil
		}, &reservations)
	},
}
