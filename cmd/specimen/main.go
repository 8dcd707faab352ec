// Command specimen stores malware samples and runs analysis chains on them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/specimen/internal/adapters/driven/config/file"
	"github.com/custodia-labs/specimen/internal/adapters/driven/fileinfo"
	"github.com/custodia-labs/specimen/internal/adapters/driven/scanner/yextend"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/workspace"
	"github.com/custodia-labs/specimen/internal/adapters/driving/cli"
	"github.com/custodia-labs/specimen/internal/core/services"
	"github.com/custodia-labs/specimen/internal/logger"
	"github.com/custodia-labs/specimen/internal/modules"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetInitializer(buildServices)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// buildServices loads configuration from configDir and wires storage,
// modules and services.
func buildServices(_ context.Context, configDir string) (cli.Services, func(), error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("loading config: %w", err)
	}
	settings := file.LoadSettings(store, filepath.Dir(store.Path()))
	logger.Debug("config %s, storage root %s", store.Path(), settings.Storage.Root)

	catalog, err := filesystem.NewCatalog(settings.Storage.Root)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("opening storage: %w", err)
	}
	opener := workspace.NewOpener()
	inspector := fileinfo.NewInspector()
	scanner := yextend.NewScanner(settings.Scanner.YextendPath)

	registry, err := services.NewModuleRegistry(modules.Defaults(settings, scanner)...)
	if err != nil {
		_ = opener.Close()
		return cli.Services{}, nil, fmt.Errorf("registering modules: %w", err)
	}
	logger.Debug("modules: %v", registry.Names())

	disp := services.NewDispatcher(catalog, opener, inspector, registry,
		services.WithStatementTimeout(settings.Dispatcher.StatementTimeout))

	cleanup := func() {
		if err := opener.Close(); err != nil {
			logger.Warn("closing databases: %v", err)
		}
	}

	return cli.Services{
		Dispatcher: disp,
		Samples:    services.NewSampleService(catalog, opener, inspector),
		Projects:   services.NewProjectService(catalog),
		Catalog:    disp,
		Settings:   settings,
	}, cleanup, nil
}
