// Package cli provides the explode command line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/explode/internal/archive"
	"github.com/tOgg1/explode/internal/attach"
	"github.com/tOgg1/explode/internal/config"
	"github.com/tOgg1/explode/internal/export"
	"github.com/tOgg1/explode/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explode <source-dir> <dest-dir>",
		Short: "Explode an unpacked workspace chat export into browsable HTML pages",
		Long: "explode reads an unpacked workspace chat export (one JSON file per\n" +
			"conversation and day) and writes one static HTML page per conversation,\n" +
			"with threads, reactions and attachment links resolved.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Config file path")
	flags.Bool("all-channels", false, "Export every channel (overrides only/except)")
	flags.StringSlice("only-channels", nil, "Export only the named channels")
	flags.StringSlice("except-channels", nil, "Export all channels but the named ones")
	flags.Bool("all-dms", false, "Export every DM (overrides only/except)")
	flags.StringSlice("only-dms", nil, "Export only the named DM ids")
	flags.StringSlice("except-dms", nil, "Export all DMs but the named ones")
	flags.Bool("download", false, "Also download attachments into the files/ cache")
	flags.Int("max-concurrent", 0, "Maximum concurrent attachment downloads per day")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (json, console, auto)")

	return cmd
}

func runExport(cmd *cobra.Command, sourceDir, destDir string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	workspace, err := archive.LoadWorkspace(sourceDir)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	exporter := export.New(cfg, workspace, destDir, &attach.HTTPDownloader{})
	ctx := logging.WithContext(cmd.Context(), logging.Component("export"))
	return exporter.Run(ctx)
}

// loadConfig loads configuration and overlays any flags the user set, so
// precedence stays defaults < file < env < flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()

	flags := cmd.Flags()
	if configFile, _ := flags.GetString("config"); configFile != "" {
		loader.SetConfigFile(configFile)
	}

	overlayBool(loader, flags, "all-channels", "selection.all_channels")
	overlaySlice(loader, flags, "only-channels", "selection.only_channels")
	overlaySlice(loader, flags, "except-channels", "selection.except_channels")
	overlayBool(loader, flags, "all-dms", "selection.all_dms")
	overlaySlice(loader, flags, "only-dms", "selection.only_dms")
	overlaySlice(loader, flags, "except-dms", "selection.except_dms")
	overlayBool(loader, flags, "download", "attachments.download")
	overlayInt(loader, flags, "max-concurrent", "attachments.max_concurrent")
	overlayString(loader, flags, "log-level", "logging.level")
	overlayString(loader, flags, "log-format", "logging.format")

	return loader.Load()
}

type flagSet interface {
	Changed(name string) bool
	GetBool(name string) (bool, error)
	GetInt(name string) (int, error)
	GetString(name string) (string, error)
	GetStringSlice(name string) ([]string, error)
}

func overlayBool(loader *config.Loader, flags flagSet, flag, key string) {
	if flags.Changed(flag) {
		value, _ := flags.GetBool(flag)
		loader.Set(key, value)
	}
}

func overlayInt(loader *config.Loader, flags flagSet, flag, key string) {
	if flags.Changed(flag) {
		value, _ := flags.GetInt(flag)
		loader.Set(key, value)
	}
}

func overlayString(loader *config.Loader, flags flagSet, flag, key string) {
	if flags.Changed(flag) {
		value, _ := flags.GetString(flag)
		loader.Set(key, strings.TrimSpace(value))
	}
}

func overlaySlice(loader *config.Loader, flags flagSet, flag, key string) {
	if flags.Changed(flag) {
		value, _ := flags.GetStringSlice(flag)
		loader.Set(key, value)
	}
}
