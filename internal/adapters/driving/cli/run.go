package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

var (
	runProject string
	runSample  string
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run [chain]",
	Short: "Run a command chain",
	Long: `Runs a chain of builtin and module statements separated by ';'.

Statements run in order. A failing statement is reported and the chain
continues with the next one. The sample given with --sample is opened
before the first statement and re-opened for modules if a statement
closed it.

Examples:
  specimen run help
  specimen run -p apt -s <sha256> "info; strings -n 8"
  specimen run "find tag ransomware"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChain,
}

func init() {
	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "project to run in")
	runCmd.Flags().StringVarP(&runSample, "sample", "s", "", "sha256 of the sample to open")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(runCmd)
}

func runChain(cmd *cobra.Command, args []string) error {
	if dispatcher == nil {
		return fmt.Errorf("dispatcher: %w", errNotConfigured)
	}

	req := domain.ChainRequest{
		Project: runProject,
		SHA256:  runSample,
		Command: strings.Join(args, " "),
	}
	res, err := dispatcher.Dispatch(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if runJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	return render.Chain(cmd.OutOrStdout(), res, render.DefaultStyles())
}
