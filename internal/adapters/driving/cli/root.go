// Package cli provides the specimen command line built on cobra.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
	"github.com/custodia-labs/specimen/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services bundles the driving ports commands talk to.
type Services struct {
	Dispatcher driving.Dispatcher
	Samples    driving.SampleService
	Projects   driving.ProjectService
	Catalog    driving.CommandCatalog
	Settings   domain.AppSettings
}

// Initializer builds the services for a config directory. An empty
// directory selects the default location. The returned cleanup releases
// storage handles.
type Initializer func(ctx context.Context, configDir string) (Services, func(), error)

var (
	dispatcher     driving.Dispatcher
	sampleService  driving.SampleService
	projectService driving.ProjectService
	commandCatalog driving.CommandCatalog
	appSettings    domain.AppSettings

	initializer Initializer
	cleanup     func()
)

// errNotConfigured is returned when a command runs without its service.
var errNotConfigured = errors.New("service not configured")

// skipServices marks commands that run without storage.
const skipServices = "specimen/skip-services"

var rootCmd = &cobra.Command{
	Use:   "specimen",
	Short: "Malware sample triage",
	Long: `specimen stores malware samples in content-addressed project datasets
and runs analysis command chains against them.

A chain is one or more statements separated by ';', for example:
  specimen run -s <sha256> "info; strings -n 8; fuzzy"`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.specimen)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	dispatcher = s.Dispatcher
	sampleService = s.Samples
	projectService = s.Projects
	commandCatalog = s.Catalog
	appSettings = s.Settings
}

// SetInitializer registers the function that builds services before a
// command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if initializer == nil || cmd.Annotations[skipServices] == "true" {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Section("Initialising")
	s, done, err := initializer(ctx, configDir)
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	SetServices(s)
	cleanup = done
	return nil
}

// Execute runs the root command with ctx and releases services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		logger.Sync()
	}()
	return rootCmd.ExecuteContext(ctx)
}
