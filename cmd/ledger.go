package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"doubloon-tracker/core/utils"
	"doubloon-tracker/feature/ledger"

	"github.com/spf13/cobra"
)

var (
	ledgerActor string
	ledgerName  string
	topLimit    int
	jsonOutput  bool
)

// ledgerCmd is the parent command for offline ledger operations.
// Rank transitions made here are stored but roles are reconciled on the next bot start.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and adjust doubloon balances",
}

var awardCmd = &cobra.Command{
	Use:   "award [user] [amount]",
	Short: "Add doubloons to a user, creating the record if needed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdjust(cmd, args, false)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [user] [amount]",
	Short: "Remove doubloons from an existing user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdjust(cmd, args, true)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [user] [name...]",
	Short: "Create a user or change their display name",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		engine, err := rt.engine(nil, nil)
		if err != nil {
			return err
		}

		name := strings.Join(args[1:], " ")
		u, err := engine.Register(cmd.Context(), ledgerActor, utils.StripMention(args[0]), name)
		if err != nil {
			return err
		}
		return printResult(u, fmt.Sprintf("Registered %s as %s (%d doubloons, %s)", u.ID, u.Name, u.Balance, u.Rank))
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [user]",
	Short: "Show a user's balance and rank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		engine, err := rt.engine(nil, nil)
		if err != nil {
			return err
		}

		u, err := engine.Balance(cmd.Context(), utils.StripMention(args[0]))
		if err != nil {
			return err
		}
		return printResult(u, fmt.Sprintf("%s (%s): %d doubloons, %s", u.Name, u.ID, u.Balance, u.Rank))
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List users by balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		engine, err := rt.engine(nil, nil)
		if err != nil {
			return err
		}

		users, err := engine.Top(cmd.Context(), topLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(users)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tID\tDOUBLOONS\tRANK")
		for i, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, u.Name, u.ID, u.Balance, u.Rank)
		}
		return w.Flush()
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair-ranks",
	Short: "Reclassify stored ranks against the configured tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		engine, err := rt.engine(nil, nil)
		if err != nil {
			return err
		}
		n, err := engine.RepairRanks(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Repaired %d rank(s)\n", n)
		return nil
	},
}

func runAdjust(cmd *cobra.Command, args []string, revoke bool) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	engine, err := rt.engine(nil, nil)
	if err != nil {
		return err
	}

	res, err := engine.Adjust(cmd.Context(), ledger.AdminChange{
		Actor:       ledgerActor,
		UserID:      utils.StripMention(args[0]),
		DisplayName: ledgerName,
		Magnitude:   args[1],
		Revoke:      revoke,
	})
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%s: %d -> %d doubloons", res.UserID, res.OldBalance, res.NewBalance)
	if res.Transition != nil {
		summary += fmt.Sprintf(" (%s -> %s)", res.OldRank, res.NewRank)
	}
	return printResult(res, summary)
}

func printResult(v any, text string) error {
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(v)
	}
	fmt.Println(text)
	return nil
}

func init() {
	ledgerCmd.PersistentFlags().StringVar(&ledgerActor, "actor", "cli", "Name recorded in the point history")
	ledgerCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	awardCmd.Flags().StringVar(&ledgerName, "name", "", "Display name to store")
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "Maximum rows, 0 for all")

	ledgerCmd.AddCommand(awardCmd, revokeCmd, registerCmd, balanceCmd, topCmd, repairCmd)
	RootCmd.AddCommand(ledgerCmd)
}
