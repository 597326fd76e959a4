package cmd

import (
	"fmt"

	"github.com/zjrosen/stimseq/internal/infrastructure/sqlite"
	"github.com/zjrosen/stimseq/internal/runs"
	"github.com/zjrosen/stimseq/internal/runs/domain"

	"github.com/spf13/cobra"
)

var (
	genParticipant string
	genPhase       string
	genForce       bool
	genSeed        int64
	genSeedSet     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a constrained presentation order for a participant",
	Long: `Load the stimulus corpus for the given phase, produce a randomized order
satisfying the configured consecutive-run constraints, verify it preserves
the stimulus set, and persist it as CSV with a YAML manifest. The run is
recorded in the audit database.

If a persisted order already exists for the participant and phase it is
reused (after re-checking it against the current corpus) unless --force
is given.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genParticipant, "participant", "p", "", "participant id (required)")
	generateCmd.Flags().StringVar(&genPhase, "phase", string(domain.PhaseTest), "experiment phase: practice or test")
	generateCmd.Flags().BoolVar(&genForce, "force", false, "regenerate even if a persisted order exists")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "fixed seed (overrides the configured randomness mode)")
	_ = generateCmd.MarkFlagRequired("participant")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	genSeedSet = cmd.Flags().Changed("seed")

	db, err := sqlite.NewDB(cfg.Paths.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer func() { _ = db.Close() }()

	gen := runs.Generator{Config: cfg, Repo: db.RunRepository()}
	req := runs.GenerateRequest{
		Participant: genParticipant,
		Phase:       domain.Phase(genPhase),
		Force:       genForce,
	}
	if genSeedSet {
		seed := genSeed
		req.SeedOverride = &seed
	}

	outcome, err := gen.Generate(req)
	if err != nil {
		return err
	}

	if outcome.Reused {
		fmt.Printf("Reusing persisted order: %s (%d stimuli)\n", outcome.CSVPath, len(outcome.IDs))
		return nil
	}

	fmt.Printf("Sequence written: %s (%d stimuli)\n", outcome.CSVPath, len(outcome.IDs))
	if outcome.Relaxed {
		fmt.Println("Note: constraints could not be fully satisfied; remainder appended unconstrained:")
		for _, w := range outcome.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}
