package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/stripestatus"
)

func newStripeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stripe",
		Short: "Manage a company's Stripe Connect account",
	}

	cmd.AddCommand(
		newStripeStatusCmd(a),
		newStripeSyncCmd(a),
		newStripeActionCmd(a, "create", "Create a connected account", (*stripestatus.Reconciler).Create),
		newStripeActionCmd(a, "suspend", "Suspend the connected account", (*stripestatus.Reconciler).Suspend),
		newStripeActionCmd(a, "reactivate", "Reactivate a suspended account", (*stripestatus.Reconciler).Reactivate),
		newStripeDeleteCmd(a),
		newStripeLinkCmd(a),
		newStripeWatchCmd(a),
	)

	return cmd
}

// reconciler builds a Reconciler for one company.
func (a *app) reconciler(companyID string, hooks stripestatus.Hooks) (*stripestatus.Reconciler, error) {
	client, err := a.authedClient()
	if err != nil {
		return nil, err
	}
	return stripestatus.NewReconciler(client, companyID, stripestatus.DefaultSyncPolicy, hooks, a.logger), nil
}

func newStripeStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <company-id>",
		Short: "Show the account status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reconciler(args[0], stripestatus.Hooks{})
			if err != nil {
				return err
			}
			s, err := r.Refresh(cmd.Context())
			if err != nil {
				return describe(err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printStatus(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}

func newStripeSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <company-id>",
		Short: "Ask the backend to re-sync the account with Stripe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reconciler(args[0], stripestatus.Hooks{})
			if err != nil {
				return err
			}
			if err := r.Sync(cmd.Context()); err != nil {
				return describe(err)
			}
			printStatus(cmd.OutOrStdout(), r.Status())
			return nil
		},
	}
}

func newStripeActionCmd(a *app, use, short string, action func(*stripestatus.Reconciler, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <company-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reconciler(args[0], stripestatus.Hooks{})
			if err != nil {
				return err
			}
			if err := action(r, cmd.Context()); err != nil {
				return describe(err)
			}
			printStatus(cmd.OutOrStdout(), r.Status())
			return nil
		},
	}
}

func newStripeDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <company-id>",
		Short: "Delete the connected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("deleting a Stripe account cannot be undone, pass --yes to confirm")
			}
			r, err := a.reconciler(args[0], stripestatus.Hooks{})
			if err != nil {
				return err
			}
			if err := r.Delete(cmd.Context()); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted Stripe account of company %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}

func newStripeLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link <company-id>",
		Short: "Print a fresh onboarding link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reconciler(args[0], stripestatus.Hooks{})
			if err != nil {
				return err
			}
			url, err := r.OnboardingLink(cmd.Context())
			if url == "" && err != nil {
				return describe(err)
			}
			if err != nil {
				a.logger.Warn().Err(err).Msg("refresh after onboarding link failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newStripeWatchCmd(a *app) *cobra.Command {
	var returned bool

	cmd := &cobra.Command{
		Use:   "watch <company-id>",
		Short: "Follow the account status until it settles",
		Long: `Poll the account status every 10 seconds while onboarding and every
30 seconds once active with outstanding requirements. Stale onboarding
accounts are re-synced with Stripe automatically. Stops once nothing is left
to wait for, or on Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			out := cmd.OutOrStdout()
			var last *stripestatus.Status
			r, err := a.reconciler(args[0], stripestatus.Hooks{
				StatusChanged: func(s stripestatus.Status) {
					if last != nil && last.Equal(s) {
						return
					}
					last = &s
					fmt.Fprintf(out, "%s  ", time.Now().Format(time.TimeOnly))
					printStatusLine(out, s)
				},
			})
			if err != nil {
				return err
			}

			task := r.Watch(stripestatus.WatchOptions{ReturnedFromOnboarding: returned}, a.logger)
			task.Start(ctx)
			<-task.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&returned, "returned", false, "the user just came back from the onboarding flow")

	return cmd
}

func printStatus(out io.Writer, s stripestatus.Status) {
	fmt.Fprintf(out, "Account:    %s\n", orDash(s.AccountID))
	fmt.Fprintf(out, "Status:     %s\n", s.AccountStatus)
	fmt.Fprintf(out, "Charges:    %t\n", s.ChargesEnabled)
	fmt.Fprintf(out, "Payouts:    %t\n", s.PayoutsEnabled)
	fmt.Fprintf(out, "Details:    %t\n", s.DetailsSubmitted)
	fmt.Fprintf(out, "Onboarded:  %t\n", s.OnboardingCompleted)
	if len(s.RequirementsCurrentlyDue) > 0 {
		fmt.Fprintf(out, "Due:        %s\n", strings.Join(s.RequirementsCurrentlyDue, ", "))
	}
	if len(s.RequirementsPastDue) > 0 {
		fmt.Fprintf(out, "Past due:   %s\n", strings.Join(s.RequirementsPastDue, ", "))
	}
	if s.LastSyncAt != nil {
		fmt.Fprintf(out, "Last sync:  %s\n", s.LastSyncAt.Format(time.RFC3339))
	}
}

func printStatusLine(out io.Writer, s stripestatus.Status) {
	fmt.Fprintf(out, "%s charges=%t payouts=%t due=%d past_due=%d\n",
		s.AccountStatus, s.ChargesEnabled, s.PayoutsEnabled,
		len(s.RequirementsCurrentlyDue), len(s.RequirementsPastDue))
}
