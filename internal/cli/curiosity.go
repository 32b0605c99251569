package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clawdbot/metalens/internal/store"
)

var curiosityCmd = &cobra.Command{
	Use:   "curiosity",
	Short: "Manage open-question entries",
}

var curiosityAddCmd = &cobra.Command{
	Use:   "add <content> [confidence] [domain]",
	Short: "Birth a curiosity",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		confidence := 0.7
		if len(args) > 1 {
			c, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse confidence %q: %w", args[1], err)
			}
			confidence = c
		}
		domain := ""
		if len(args) > 2 {
			domain = args[2]
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		entry, err := eng.AddCuriosity(args[0], confidence, domain)
		if err != nil {
			return err
		}
		fmt.Printf("Curiosity born: %s: %s\n", entry.ID, truncate(entry.Content, 80))
		return nil
	},
}

var curiosityEvolveCmd = &cobra.Command{
	Use:   "evolve <id> <evidence>",
	Short: "Append evidence and advance the lifecycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		entry, err := eng.Evolve(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Curiosity [%s]: %s\n", entry.Status, truncate(entry.Content, 80))
		return nil
	},
}

var curiosityResolveCmd = &cobra.Command{
	Use:   "resolve <id> <resolution> [type]",
	Short: "Resolve a curiosity into a new entry of another type",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := store.TypePerception
		if len(args) > 2 {
			target = store.EntryType(args[2])
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		entry, err := eng.Resolve(args[0], args[1], target)
		if err != nil {
			return err
		}
		fmt.Printf("Resolved -> [%s] %s: %s\n", entry.Type, entry.ID, truncate(entry.Content, 80))
		return nil
	},
}

func init() {
	curiosityCmd.AddCommand(curiosityAddCmd)
	curiosityCmd.AddCommand(curiosityEvolveCmd)
	curiosityCmd.AddCommand(curiosityResolveCmd)
}
