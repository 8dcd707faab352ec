package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List builtin commands and modules",
	Args:  cobra.NoArgs,
	RunE:  runModules,
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, _ []string) error {
	if commandCatalog == nil {
		return fmt.Errorf("command catalog: %w", errNotConfigured)
	}

	st := render.DefaultStyles()
	cmd.Println(render.Entry(domain.InfoEntry("Commands:"), st))
	cmd.Println(render.Table(commandTable(commandCatalog.Builtins()), st))
	cmd.Println(render.Entry(domain.InfoEntry("Modules:"), st))
	cmd.Println(render.Table(commandTable(commandCatalog.Modules()), st))
	return nil
}

func commandTable(infos []driving.CommandInfo) domain.Table {
	t := domain.Table{Header: []string{"Command", "Description"}}
	for _, info := range infos {
		t.Rows = append(t.Rows, []string{info.Name, info.Description})
	}
	return t
}
