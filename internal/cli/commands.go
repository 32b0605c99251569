package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawdbot/metalens/internal/store"
)

func init() {
	addCmd.Flags().StringVar(&addTrace, "trace", "", "Comma-separated ids of entries active when a decision was logged")
	feedbackCmd.Flags().StringVar(&feedbackIDs, "ids", "", "Comma-separated entry ids to target")
	injectCmd.Flags().StringVar(&injectBoot, "boot", "", "Bootstrap document path (default $METALENS_BOOT or BOOT.md)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active entries and curiosity lifecycle",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}

	sum, err := eng.Status()
	if err != nil {
		return err
	}

	fmt.Println("Metalens:")
	fmt.Printf("  Active entries: %d\n", sum.Active)
	fmt.Printf("  Resolved: %d\n", sum.Resolved)
	fmt.Printf("  Decisions traced: %d\n", sum.TotalDecisions)
	fmt.Printf("  Corrections: %d\n", sum.TotalCorrections)
	fmt.Println()

	for _, t := range store.Types() {
		views := sum.ByType[t]
		if len(views) == 0 {
			continue
		}
		fmt.Printf("  %s: %d\n", t, len(views))
		for _, v := range views {
			fmt.Printf("    [%.2f x%d] %s\n", v.Effective, v.Reinforcements, truncate(v.Content, 80))
		}
	}

	if len(sum.Curiosities) > 0 {
		fmt.Println()
		fmt.Println("  Curiosity lifecycle:")
		for _, v := range sum.Curiosities {
			fmt.Printf("    [%s|%dev] %s\n", v.Status, v.EvidenceCount, truncate(v.Content, 70))
		}
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// --- add command ---

var addTrace string

var addCmd = &cobra.Command{
	Use:   "add <type> <content> [confidence] [domain]",
	Short: "Add a memory entry",
	Long: "Add a typed entry. Types: perception, override, protection, self_obs,\n" +
		"decision, curiosity. Near-duplicate content reinforces the existing entry\n" +
		"instead of inserting a new one.",
	Args: cobra.RangeArgs(2, 4),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	entryType := store.EntryType(args[0])
	content := args[1]
	confidence := 0.7
	if len(args) > 2 {
		c, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("parse confidence %q: %w", args[2], err)
		}
		confidence = c
	}
	domain := ""
	if len(args) > 3 {
		domain = args[3]
	}

	var trace []string
	if addTrace != "" {
		trace = strings.Split(addTrace, ",")
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	entry, err := eng.Add(entryType, content, confidence, domain, trace)
	if err != nil {
		return err
	}

	fmt.Printf("Added [%s] %s: %s\n", entry.Type, entry.ID, truncate(entry.Content, 80))
	return nil
}

// --- feedback command ---

var feedbackIDs string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <+1|-1> [context]",
	Short: "Record a correction or confirmation",
	Long: "Apply feedback to specific entries (--ids) or to the most recently\n" +
		"reinforced active entries. Negative feedback weakens confident entries\n" +
		"hardest; positive feedback adds headroom-scaled reinforcement.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runFeedback,
}

func runFeedback(cmd *cobra.Command, args []string) error {
	polarity, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse polarity %q: %w", args[0], err)
	}
	context := ""
	if len(args) > 1 {
		context = args[1]
	}

	var ids []string
	if feedbackIDs != "" {
		ids = strings.Split(feedbackIDs, ",")
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	adjusted, err := eng.Feedback(polarity, context, ids)
	if err != nil {
		return err
	}

	sign := ""
	if polarity > 0 {
		sign = "+"
	}
	fmt.Printf("Feedback (%s%d) applied to %d entries\n", sign, polarity, len(adjusted))
	for _, e := range adjusted {
		fmt.Printf("  %s -> %.2f\n", e.ID, e.Confidence)
	}
	return nil
}

// --- compile command ---

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Render the lens text",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		lens, err := eng.Compile()
		if err != nil {
			return err
		}
		fmt.Print(lens)
		return nil
	},
}

// --- inject command ---

var injectBoot string

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Compile the lens and splice it into the bootstrap document",
	Long: "Replace the content between the LIVE_STATE markers in the bootstrap\n" +
		"document with a freshly compiled lens. The markers must already exist;\n" +
		"inject never creates them.",
	RunE: runInject,
}

func runInject(cmd *cobra.Command, args []string) error {
	bootPath := injectBoot
	if bootPath == "" {
		bootPath = os.Getenv("METALENS_BOOT")
	}
	if bootPath == "" {
		bootPath = "BOOT.md"
	}

	doc, err := os.ReadFile(bootPath)
	if err != nil {
		return fmt.Errorf("read bootstrap document: %w", err)
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	updated, err := eng.Inject(string(doc))
	if err != nil {
		return err
	}

	tmp := bootPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write bootstrap document: %w", err)
	}
	if err := os.Rename(tmp, bootPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace bootstrap document: %w", err)
	}

	fmt.Printf("%s updated (%d bytes)\n", filepath.Base(bootPath), len(updated))
	return nil
}

// --- decay command ---

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Apply time-based decay and persist the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		marked, err := eng.ApplyDecay()
		if err != nil {
			return err
		}
		fmt.Printf("Decay applied, %d entries marked pruned or dormant\n", marked)
		return nil
	},
}
