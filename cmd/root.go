package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/agentic-research/resfs/api"
	"github.com/agentic-research/resfs/internal/config"
	"github.com/agentic-research/resfs/internal/provider"
	"github.com/agentic-research/resfs/internal/resources"
)

// defaultConfigName is picked up from the working directory when neither
// --config nor --dir is given.
const defaultConfigName = "resfs.hcl"

var version = "dev"

var (
	configPath string
	sourceName string
	dirPath    string
	pkgName    string
	verbose    bool

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "resfs"})
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an HCL manifest (default ./"+defaultConfigName+" when present)")
	rootCmd.PersistentFlags().StringVarP(&sourceName, "source", "s", "", "Source name in the manifest")
	rootCmd.PersistentFlags().StringVarP(&dirPath, "dir", "d", "", "Serve a directory without a manifest")
	rootCmd.PersistentFlags().StringVarP(&pkgName, "package", "p", "", "Override the dotted package name of the source")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:           "resfs",
	Short:         "resfs: a read-only virtual filesystem over resource packages",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.InfoLevel)
		}
	},
}

// loadManifest resolves the manifest from --config, --dir, ./resfs.hcl or the
// working directory, in that order.
func loadManifest() (*api.Manifest, error) {
	if configPath != "" && dirPath != "" {
		return nil, errors.New("--config and --dir are mutually exclusive")
	}
	if configPath != "" {
		return config.Load(configPath)
	}
	if dirPath == "" {
		if _, err := os.Stat(defaultConfigName); err == nil {
			logger.Debug("using manifest from working directory", "path", defaultConfigName)
			return config.Load(defaultConfigName)
		}
		dirPath = "."
	}
	abs, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dirPath, err)
	}
	m := config.Default(abs, pkgName)
	if err := config.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// selectSource loads the manifest and picks the source named by --source.
func selectSource() (api.Source, error) {
	m, err := loadManifest()
	if err != nil {
		return api.Source{}, err
	}
	src, err := config.Source(m, sourceName)
	if err != nil {
		return api.Source{}, err
	}
	if pkgName != "" {
		src.Package = pkgName
	}
	return src, nil
}

// openSource opens the selected source. The closer must be called when done.
func openSource() (api.Source, resources.MinimalProvider, io.Closer, error) {
	src, err := selectSource()
	if err != nil {
		return api.Source{}, nil, nil, err
	}
	p, closer, err := provider.Open(src)
	if err != nil {
		return api.Source{}, nil, nil, err
	}
	logger.Debug("opened source", "name", src.Name, "kind", src.Kind, "package", p.Package())
	return src, p, closer, nil
}

// withRoot opens the selected source, runs fn on its root directory and
// releases the source afterwards.
func withRoot(fn func(root resources.Traversable) error) (err error) {
	_, p, closer, err := openSource()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(resources.NewDirectoryNode(p))
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Error(err)
		os.Exit(1)
	}
}
