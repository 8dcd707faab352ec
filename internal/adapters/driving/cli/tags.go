package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

var tagsProject string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage sample tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tag in a project",
	Args:  cobra.NoArgs,
	RunE:  runTagsList,
}

var tagsAddCmd = &cobra.Command{
	Use:   "add [hash] [tags]",
	Short: "Add tags to a sample",
	Long: `Adds comma-separated tags to the sample with the given md5 or sha256.
Existing tags are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runTagsAdd,
}

func init() {
	tagsCmd.PersistentFlags().StringVarP(&tagsProject, "project", "p", "", "project name")
	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsAddCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runTagsList(cmd *cobra.Command, _ []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	tags, err := sampleService.ListTags(cmd.Context(), tagsProject)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}
	if len(tags) == 0 {
		cmd.Println("No tags.")
		return nil
	}
	cmd.Println(strings.Join(tags, ", "))
	return nil
}

func runTagsAdd(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	kind, err := domain.ClassifyHash(args[0])
	if err != nil {
		return err
	}
	tags := domain.ParseTags(args[1])
	if len(tags) == 0 {
		return fmt.Errorf("%w: no tags given", domain.ErrInvalidInput)
	}

	query := domain.SearchQuery{Key: domain.SearchKey(kind), Value: args[0]}
	n, err := sampleService.AddTags(cmd.Context(), tagsProject, query, tags)
	if err != nil {
		return fmt.Errorf("adding tags: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: sample %s", domain.ErrNotFound, args[0])
	}
	cmd.Printf("Tagged %d sample(s) with %s\n", n, strings.Join(tags, ", "))
	return nil
}
