package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"linegrid/clipboardx"
	"linegrid/config"
	"linegrid/editor"
	"linegrid/export"
	"linegrid/grid"
	"linegrid/schema"
	"linegrid/store"
	"linegrid/store/filestore"
	"linegrid/store/sqlitestore"

	"github.com/spf13/cobra"
)

var (
	configPath string
	storeKind  string
	storePath  string
	schemaFlag []string
	outputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "linegrid",
		Short:         "Edit sectioned line-item grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Store driver: sqlite, file or memory")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Database file or project directory")

	editCmd := &cobra.Command{
		Use:   "edit <project>",
		Short: "Open a project's grids in the terminal editor",
		Args:  cobra.ExactArgs(1),
		RunE:  runEdit,
	}
	editCmd.Flags().StringSliceVar(&schemaFlag, "schema", nil, "Schemas to open (default from settings)")

	exportCmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Write a project's grid to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringSliceVar(&schemaFlag, "schema", nil, "Schema to export")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: <project>-<schema>.xlsx)")

	showCmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Print a project's grid as tab-separated text",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().StringSliceVar(&schemaFlag, "schema", nil, "Schema to print")

	schemasCmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the available schemas",
		Args:  cobra.NoArgs,
		RunE:  runSchemas,
	}

	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List stored projects that have a grid of a schema",
		Args:  cobra.NoArgs,
		RunE:  runProjects,
	}
	projectsCmd.Flags().StringSliceVar(&schemaFlag, "schema", nil, "Schema to look for")

	rootCmd.AddCommand(editCmd, exportCmd, showCmd, schemasCmd, projectsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads settings and applies the global flags over them.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if storeKind != "" {
		cfg.Store = storeKind
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text logs to the configured file; the terminal belongs to
// the editor.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	path := cfg.ResolvedLogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// openStore builds the configured store. The closer is nil when there is
// nothing to release; the watcher is nil when the store cannot be watched.
func openStore(cfg *config.Config) (store.Store, editor.Watcher, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(), nil, nil, nil
	case config.StoreFile:
		fs := filestore.New(cfg.ResolvedStorePath())
		return fs, fs, nil, nil
	default:
		path := cfg.ResolvedStorePath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, nil, fmt.Errorf("create store dir: %w", err)
		}
		db, err := sqlitestore.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, nil, db, nil
	}
}

// resolveSchemas picks the named schemas, or the configured defaults, from
// the built-ins plus the schema directory, applying the header policy.
func resolveSchemas(cfg *config.Config, names []string) ([]*schema.Schema, error) {
	reg := schema.Builtin()
	if err := reg.LoadDir(cfg.ResolvedSchemaDir()); err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	if len(names) == 0 {
		names = cfg.Schemas
	}
	if len(names) == 0 {
		names = reg.Types()
	}
	var out []*schema.Schema
	for _, name := range names {
		s, ok := reg[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown schema %q (have %s)", name, strings.Join(reg.Types(), ", "))
		}
		out = append(out, cfg.ApplyHeaderPolicy(s))
	}
	return out, nil
}

func oneSchema(cfg *config.Config) (*schema.Schema, error) {
	if len(schemaFlag) > 1 {
		return nil, fmt.Errorf("pick one schema, got %d", len(schemaFlag))
	}
	schemas, err := resolveSchemas(cfg, schemaFlag)
	if err != nil {
		return nil, err
	}
	return schemas[0], nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	schemas, err := resolveSchemas(cfg, schemaFlag)
	if err != nil {
		return err
	}
	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	st, watcher, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	e := editor.New(cfg, editor.Options{
		Store:   st,
		Board:   clipboardx.NewSystem(),
		Watcher: watcher,
		Logger:  logger,
	})
	return e.Run(args[0], schemas)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := oneSchema(cfg)
	if err != nil {
		return err
	}
	sections, err := fetch(cmd.Context(), cfg, args[0], s)
	if err != nil {
		return err
	}

	path := outputPath
	if path == "" {
		path = fmt.Sprintf("%s-%s.xlsx", args[0], s.Type)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.WriteXLSX(f, s, sections); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := oneSchema(cfg)
	if err != nil {
		return err
	}
	sections, err := fetch(cmd.Context(), cfg, args[0], s)
	if err != nil {
		return err
	}
	return export.WriteTSV(cmd.OutOrStdout(), s, sections)
}

func fetch(ctx context.Context, cfg *config.Config, projectID string, s *schema.Schema) ([]grid.Section, error) {
	st, _, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sections, err := st.Load(ctx, projectID, s.Type)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", projectID, s.Type, err)
	}
	// Recompute so subtotals reflect the schema's formula.
	return grid.New(s, sections).Sections, nil
}

// projectLister is implemented by stores that can enumerate projects.
type projectLister interface {
	Projects(ctx context.Context, schemaType string) ([]string, error)
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := oneSchema(cfg)
	if err != nil {
		return err
	}
	st, _, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	lister, ok := st.(projectLister)
	if !ok {
		return fmt.Errorf("the %s store cannot list projects", cfg.Store)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ids, err := lister.Projects(ctx, s.Type)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runSchemas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg := schema.Builtin()
	if err := reg.LoadDir(cfg.ResolvedSchemaDir()); err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, typ := range reg.Types() {
		s := cfg.ApplyHeaderPolicy(reg[typ])
		fmt.Fprintf(out, "%-12s %-14s %d fields, %s, headers %s\n",
			s.Type, s.Title, len(s.Fields), s.Formula, s.HeaderRow)
	}
	return nil
}
