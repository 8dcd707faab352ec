package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/specimen/internal/adapters/driving/shell"
	"github.com/custodia-labs/specimen/internal/logger"
)

// errNotTerminal is returned when the shell is started without a terminal.
var errNotTerminal = errors.New("shell requires an interactive terminal (use 'specimen run' for scripts)")

// isTerminal reports whether stdin is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var shellProject string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell",
	Long: `Starts an interactive prompt that runs command chains.

The project switched to and the sample opened by a chain carry over to the
next one.

Controls:
  Enter     - Run the chain
  ↑/↓       - Browse history
  PgUp/PgDn - Scroll output
  Ctrl+L    - Clear output
  Ctrl+C    - Quit (or type exit)`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().StringVarP(&shellProject, "project", "p", "", "project to start in")
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) (err error) {
	if !isTerminal() {
		return errNotTerminal
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in shell: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("shell crashed: %v", r)
		}
	}()

	app, err := shell.NewApp(&shell.Ports{Dispatcher: dispatcher}, shellProject)
	if err != nil {
		return fmt.Errorf("failed to create shell: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("shell error: %w", err)
	}
	return nil
}
