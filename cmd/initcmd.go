package cmd

import (
	"fmt"
	"os"

	"github.com/zjrosen/stimseq/internal/config"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long:  `Create stimseq.yaml in the current directory with default settings and explanatory comments.`,
	// No config needs to exist yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	const path = "stimseq.yaml"
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
