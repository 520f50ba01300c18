package cmd

import (
	"fmt"
	"strings"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/config"

	"github.com/spf13/cobra"
)

var tailLines int

// logsCmd reads the audit trail files.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Read the audit trail",
	Long:  fmt.Sprintf("Reads the audit trail files. Trails: %s.", trailNames()),
}

var logsTailCmd = &cobra.Command{
	Use:   "tail [trail]",
	Short: "Print the last lines of a trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trail, err := openTrail()
		if err != nil {
			return err
		}
		defer trail.Close()

		lines, err := trail.Tail(audit.Name(args[0]), tailLines)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

var logsFullCmd = &cobra.Command{
	Use:   "full [trail]",
	Short: "Print a whole trail file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trail, err := openTrail()
		if err != nil {
			return err
		}
		defer trail.Close()

		body, err := trail.Full(audit.Name(args[0]))
		if err != nil {
			return err
		}
		fmt.Print(body)
		return nil
	},
}

// openTrail opens the trail without touching the database.
func openTrail() (*audit.Trail, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return audit.New(cfg.Audit)
}

func trailNames() string {
	names := audit.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}

func init() {
	logsTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of lines")
	logsCmd.AddCommand(logsTailCmd, logsFullCmd)
	RootCmd.AddCommand(logsCmd)
}
