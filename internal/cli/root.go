package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clawdbot/metalens/internal/engine"
	"github.com/clawdbot/metalens/internal/store"
)

var storePath string

var rootCmd = &cobra.Command{
	Use:   "metalens",
	Short: "Self-evolving metacognitive lens for AI agents",
	Long: "Metalens maintains a typed memory store for an autonomous agent, decays entry\n" +
		"confidence over time, folds feedback back into the responsible entries, and\n" +
		"compiles the active subset into a directive block for the agent's bootstrap\n" +
		"context.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Store file path (default $METALENS_STORE or ~/.metalens/metalens.json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(curiosityCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(serveCmd)
}

// openEngine resolves the store path and builds an engine over it.
// Flag wins, then METALENS_STORE, then the default location.
func openEngine() (*engine.Engine, error) {
	path := storePath
	if path == "" {
		path = os.Getenv("METALENS_STORE")
	}
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return engine.New(store.Open(path)), nil
}
