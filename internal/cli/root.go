// Package cli holds the partsctl cobra commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/repository"
)

// app is the state shared by every subcommand once the root pre-run has loaded configuration.
type app struct {
	configPath string
	dsn        string
	imageDir   string
	logLevel   string

	cfg    *common.Config
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "partsctl",
		Short: "Extract parts, images and guides from equipment PDF catalogs",
		Long: `partsctl turns directories of parts catalogs and technical guides into a
searchable parts database.

Catalog pages are scanned for part numbers, machine models and specifications,
embedded images are linked to the parts they illustrate, and technical guides are
cross-referenced with the part numbers they mention.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML file with extraction overrides")
	cmd.PersistentFlags().StringVar(&a.dsn, "db", "", "database DSN (overrides DB_URL)")
	cmd.PersistentFlags().StringVar(&a.imageDir, "images-dir", "", "directory for extracted part images (overrides PART_IMAGES_DIR)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	cmd.AddCommand(newProcessCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newGuideCmd(a))
	cmd.AddCommand(newDedupCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newDBHealthCmd(a))

	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg := common.LoadConfig()
	if a.configPath != "" {
		if err := cfg.ApplyFile(a.configPath); err != nil {
			return err
		}
	}
	if a.dsn != "" {
		cfg.Database.DSN = a.dsn
	}
	if a.imageDir != "" {
		cfg.Storage.ImageDir = a.imageDir
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: common.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(a.logger)
	return nil
}

// openStore opens and migrates the database. The caller closes the returned DB.
func (a *app) openStore(ctx context.Context) (*repository.DB, *repository.Store, error) {
	db, err := repository.Open(ctx, repository.ConfigFrom(a.cfg.Database), a.logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		repository.Close(db, a.logger)
		return nil, nil, err
	}
	return db, repository.NewStore(db, a.logger), nil
}

func (a *app) closeDB(db *repository.DB) {
	repository.Close(db, a.logger)
}

// categoryFlag maps a --category value onto a stored category name. Unknown labels pass through.
func categoryFlag(v string) string {
	if v == "" {
		return ""
	}
	if cat, ok := constants.Canonicalize(v); ok {
		return string(cat)
	}
	return v
}

func categoryUsage(what string) string {
	return what + " (" + strings.Join(constants.AsStringSlice(), ", ") + ")"
}

func isDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return common.NewAppError("INVALID_INPUT", fmt.Sprintf("directory %q", path), fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if !info.IsDir() {
		return common.NewAppError("INVALID_INPUT", fmt.Sprintf("%q is not a directory", path), common.ErrInvalidInput)
	}
	return nil
}
