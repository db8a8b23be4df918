package commands

import (
	"fmt"
	"strconv"
	"strings"

	"paytrack/internal/app"
	"paytrack/internal/models"
	"paytrack/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	// Transfer flags
	fromID      int64
	toID        int64
	amountRaw   string
	description string

	// History flags
	historyLimit int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *app.Container) error {
			if c.DB == nil {
				return fmt.Errorf("migrate requires the postgres store")
			}
			if err := repositories.Migrate(cmd.Context(), c.DB); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), map[string]string{"status": "migrated"}, "schema up to date")
		})
	},
}

var ensureUserCmd = &cobra.Command{
	Use:   "ensure-user <userId>",
	Short: "Create the placeholder profile for a user if it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("userId", args[0])
		if err != nil {
			return err
		}
		return withContainer(cmd.Context(), func(c *app.Container) error {
			user, err := c.Ledger.EnsureParticipant(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), user,
				fmt.Sprintf("user %d: %s <%s>", user.ID, user.Username, user.Email))
		})
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Record a transfer from one user to another",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", amountRaw, err)
		}
		return withContainer(cmd.Context(), func(c *app.Container) error {
			payment, err := c.Ledger.RecordTransfer(cmd.Context(), models.TransferRequest{
				PayerID:     fromID,
				RecipientID: toID,
				Amount:      amount,
				Description: description,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), payment, formatPayment(*payment))
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <ownerId> <counterpartyId>",
	Short: "Show what counterparty owes owner (negative: owner owes)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseID("ownerId", args[0])
		if err != nil {
			return err
		}
		counterparty, err := parseID("counterpartyId", args[1])
		if err != nil {
			return err
		}
		return withContainer(cmd.Context(), func(c *app.Container) error {
			view, err := c.Ledger.GetBalance(cmd.Context(), owner, counterparty)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), view,
				fmt.Sprintf("balance(%d,%d) = %s", view.OwnerID, view.CounterpartyID, view.Amount.String()))
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <userId> <otherUserId>",
	Short: "List recent payments between two users, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := parseID("userId", args[0])
		if err != nil {
			return err
		}
		b, err := parseID("otherUserId", args[1])
		if err != nil {
			return err
		}
		return withContainer(cmd.Context(), func(c *app.Container) error {
			payments, err := c.Ledger.GetRecentTransactions(cmd.Context(), a, b, historyLimit)
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(payments))
			for _, p := range payments {
				lines = append(lines, formatPayment(p))
			}
			if len(lines) == 0 {
				lines = append(lines, "no payments")
			}
			return printResult(cmd.OutOrStdout(), payments, strings.Join(lines, "\n"))
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, ensureUserCmd, transferCmd, balanceCmd, historyCmd)

	transferCmd.Flags().Int64Var(&fromID, "from", 0, "Payer user id")
	transferCmd.Flags().Int64Var(&toID, "to", 0, "Recipient user id")
	transferCmd.Flags().StringVar(&amountRaw, "amount", "", "Amount, e.g. 12.50")
	transferCmd.Flags().StringVar(&description, "description", "", "Free-form description")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of payments (default 10, max 100)")
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return id, nil
}

func formatPayment(p models.Payment) string {
	return fmt.Sprintf("#%d %s %d -> %d %s %q",
		p.ID, p.Timestamp.Format("2006-01-02 15:04:05"), p.PayerID, p.RecipientID, p.Amount.String(), p.Description)
}
