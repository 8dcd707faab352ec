package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/watch"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

var (
	watchProject string
	watchTags    string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Store files as they appear in a directory",
	Long: `Watches a directory and stores every new or rewritten file once writes
to it have settled. Runs until interrupted. Subdirectories are not watched.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project name")
	watchCmd.Flags().StringVarP(&watchTags, "tags", "t", "", "comma-separated tags")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, args[0])
	}

	w := watch.New(sampleService, watchProject, domain.ParseTags(watchTags))
	w.OnStored = func(s domain.Sample) {
		cmd.Printf("%s  %s\n", s.SHA256, s.Name)
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(cmd.Context(), args[0])
}
