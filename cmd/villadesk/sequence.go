package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/smallbiznis/villadesk/internal/actor"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/spf13/cobra"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Inspect or change the invoice number sequence",
}

var sequenceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current sequence state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc sequencedomain.Service
		return runTask(cmd, func(ctx context.Context) error {
			state, err := svc.Current(ctx)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		}, &svc)
	},
}

var sequenceSetCmd = &cobra.Command{
	Use:     "set <start>",
	Short:   "Move the sequence so the next invoice number is start",
	Example: "  villadesk sequence set 2000",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid start %q: %w", args[0], err)
		}
		var svc sequencedomain.Service
		return runTask(cmd, func(ctx context.Context) error {
			state, err := svc.SetStart(actor.WithActor(ctx, actor.System()), start)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		}, &svc)
	},
}

var sequenceResetConfirm bool

var sequenceResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the sequence to its configured default start",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc sequencedomain.Service
		return runTask(cmd, func(ctx context.Context) error {
			state, err := svc.Reset(actor.WithActor(ctx, actor.System()), sequenceResetConfirm)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		}, &svc)
	},
}

func init() {
	sequenceResetCmd.Flags().BoolVar(&sequenceResetConfirm, "confirm", false, "required to reset the sequence")

	sequenceCmd.AddCommand(sequenceShowCmd)
	sequenceCmd.AddCommand(sequenceSetCmd)
	sequenceCmd.AddCommand(sequenceResetCmd)
}

func printState(w io.Writer, state sequencedomain.State) {
	fmt.Fprintf(w, "current number: %d\n", state.CurrentNumber)
	fmt.Fprintf(w, "reservations:   %d\n", state.ReservationsCount)
	if state.ReservationsCount > 0 {
		fmt.Fprintln(w, "warning: existing reservations keep their numbers; taken numbers are skipped")
	}
}
