package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

var (
	sampleProject string
	storeTags     string
	getOutput     string
	findJSON      bool
)

var storeCmd = &cobra.Command{
	Use:   "store [path...]",
	Short: "Store files as samples",
	Long: `Stores files in a project. A directory stores every regular file below it.
Storing a sample that is already known merges the given tags into it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStore,
}

var getCmd = &cobra.Command{
	Use:   "get [hash]",
	Short: "Write a stored sample to a file",
	Long: `Writes the stored contents of a sample, looked up by md5 or sha256.
The file is named after the sha256 unless --output is given; "-" writes
to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [hash]",
	Short: "Delete a sample",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var findCmd = &cobra.Command{
	Use:   "find [key] [value]",
	Short: "Search samples",
	Long: `Searches samples by md5, sha256, ssdeep, tag, name, all or latest.
Name values may use shell wildcards. latest takes an optional count.
Use --project all to search every project.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFind,
}

func init() {
	for _, c := range []*cobra.Command{storeCmd, getCmd, deleteCmd, findCmd} {
		c.Flags().StringVarP(&sampleProject, "project", "p", "", "project name")
		rootCmd.AddCommand(c)
	}
	storeCmd.Flags().StringVarP(&storeTags, "tags", "t", "", "comma-separated tags")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "output results as JSON")
}

func runStore(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	tags := domain.ParseTags(storeTags)
	stored := 0
	for _, path := range args {
		samples, err := sampleService.StoreFile(cmd.Context(), sampleProject, path, tags)
		if err != nil {
			return fmt.Errorf("storing %s: %w", path, err)
		}
		for i := range samples {
			cmd.Printf("%s  %s\n", samples[i].SHA256, samples[i].Name)
		}
		stored += len(samples)
	}
	cmd.Printf("Stored %d sample(s)\n", stored)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	rc, sample, err := sampleService.Open(cmd.Context(), sampleProject, args[0])
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	defer rc.Close()

	if getOutput == "-" {
		_, err = io.Copy(cmd.OutOrStdout(), rc)
		return err
	}

	path := getOutput
	if path == "" {
		path = sample.SHA256
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	cmd.Printf("Wrote %s (%d bytes)\n", path, sample.Size)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}
	if err := sampleService.Delete(cmd.Context(), sampleProject, args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Println("Deleted", args[0])
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	if sampleService == nil {
		return fmt.Errorf("sample service: %w", errNotConfigured)
	}

	key, err := domain.ParseSearchKey(args[0])
	if err != nil {
		return err
	}
	query := domain.SearchQuery{Key: key}
	if len(args) > 1 {
		query.Value = args[1]
	}

	results, err := sampleService.Find(cmd.Context(), sampleProject, query)
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	if findJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	return outputFindTable(cmd, results)
}

func outputFindTable(cmd *cobra.Command, results map[string][]domain.Sample) error {
	projects := make([]string, 0, len(results))
	total := 0
	for name, samples := range results {
		if len(samples) > 0 {
			projects = append(projects, name)
			total += len(samples)
		}
	}
	if total == 0 {
		cmd.Println("No samples found.")
		return nil
	}
	sort.Strings(projects)

	st := render.DefaultStyles()
	for _, name := range projects {
		if len(projects) > 1 {
			cmd.Println(render.Entry(domain.InfoEntry("Project: "+name), st))
		}
		cmd.Println(render.Table(sampleTable(results[name]), st))
	}
	return nil
}

func sampleTable(samples []domain.Sample) domain.Table {
	t := domain.Table{Header: []string{"#", "Name", "Mime", "MD5", "Created"}}
	for i := range samples {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			samples[i].Name,
			samples[i].Type,
			samples[i].MD5,
			samples[i].CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t
}
