package cmd

import (
	"fmt"

	"github.com/zjrosen/stimseq/internal/infrastructure/sqlite"
	"github.com/zjrosen/stimseq/internal/runs/domain"

	"github.com/spf13/cobra"
)

var (
	runsParticipant string
	runsPhase       string
	runsLimit       int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded randomization runs",
	Long:  `Display randomization runs from the audit store, newest first, including seed, item count, and whether constraints were relaxed.`,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVarP(&runsParticipant, "participant", "p", "", "filter by participant id")
	runsCmd.Flags().StringVar(&runsPhase, "phase", "", "filter by phase: practice or test")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := sqlite.NewDB(cfg.Paths.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer func() { _ = db.Close() }()

	filter := domain.ListFilter{
		Participant: runsParticipant,
		Phase:       domain.Phase(runsPhase),
		Limit:       runsLimit,
	}
	if runsPhase != "" && !filter.Phase.Valid() {
		return fmt.Errorf("unknown phase %q (want practice or test)", runsPhase)
	}

	recorded, err := db.RunRepository().List(filter)
	if err != nil {
		return err
	}
	if len(recorded) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	maxLen := maxParticipantLen(recorded)
	for _, run := range recorded {
		relaxed := ""
		if run.Relaxed {
			relaxed = "  [relaxed]"
		}
		fmt.Printf("%s  %-*s  %-8s  seed=%d (%s)  %d stimuli%s\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			maxLen, run.Participant, string(run.Phase), run.Seed, run.SeedMode, run.Items, relaxed)
	}
	return nil
}

// maxParticipantLen returns the length of the longest participant id in the slice.
func maxParticipantLen(recorded []*domain.Run) int {
	maxLen := 0
	for _, run := range recorded {
		if len(run.Participant) > maxLen {
			maxLen = len(run.Participant)
		}
	}
	return maxLen
}
