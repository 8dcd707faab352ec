package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
	Long: `Projects are isolated datasets, each with its own sample repository
and database. The default project lives at the storage root.`,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCreate,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	if projectService == nil {
		return fmt.Errorf("project service: %w", errNotConfigured)
	}

	projects, err := projectService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	t := domain.Table{Header: []string{"Name", "Created"}}
	for _, p := range projects {
		t.Rows = append(t.Rows, []string{p.Name, p.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	cmd.Println(render.Table(t, render.DefaultStyles()))
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	if projectService == nil {
		return fmt.Errorf("project service: %w", errNotConfigured)
	}

	p, err := projectService.Create(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	cmd.Printf("Project %s at %s\n", p.Name, p.Path)
	return nil
}
