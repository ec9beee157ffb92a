package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvlist/internal/config"
	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/loader"
	"github.com/oakwood-commons/kvlist/pkg/logger"
	"github.com/oakwood-commons/kvlist/pkg/settings"
	"github.com/oakwood-commons/kvlist/pkg/tui"
)

// errShowHelp is returned by loadRecords when there is nothing to read.
var errShowHelp = errors.New("no input provided")

var (
	rootCtx = context.Background()

	configFile string
	logLevel   int
	logFile    string
	noColor    bool

	mode          string
	keyField      string
	parentField   string
	titleField    string
	bodyField     string
	collection    string
	childrenField string
	sortExpr      string
	selectable    string
	themeName     string
	title         string
	columnWidth   int

	variable     bool
	tiled        bool
	noRecycle    bool
	renderMargin int
	spacing      int

	renderSnapshot bool
	outline        bool
	snapshotWidth  int
	snapshotHeight int
	startKeys      []string
	output         string

	sqlitePath string
	query      string

	limitRecords  int
	offsetRecords int
	tailRecords   int
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: "kvlist - virtualized list and tree browser for keyed records",
	Long: `kvlist loads keyed records from JSON, YAML, TOML, NDJSON or a sqlite query and
shows them as a virtualized list or a drill-down tree. Only the visible cells
are laid out; variable-height lists are measured in time-sliced passes.

Records are read from the file argument, from stdin when it is piped, or from
--sqlite/--query. Items chosen with enter are printed on exit.`,
	Example: `  kvlist records.yaml
  kvlist records.json --mode tree --parent-field parent
  kvlist records.yaml --variable --body-field description
  kvlist --sqlite app.db --query 'select id, name as title from users' --sort '_.title'
  cat items.ndjson | kvlist --tiled --snapshot --width 80 --height 20`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// rootPersistentPreRunE is assigned in init to avoid an initialization cycle
// (it compares against rootCmd).
func rootPersistentPreRunE(cmd *cobra.Command, _ []string) error {
	interactive := cmd == rootCmd && !renderSnapshot && !outline
	lgr, err := logger.Setup(logger.Options{
		Level:   int8(-logLevel), //nolint:gosec // flag values are small
		Path:    logFile,
		Discard: interactive && logFile == "",
	})
	if err != nil {
		return err
	}
	lgr = logger.WithValues(lgr, "command", cmd.Name())
	rootCtx = logger.WithLogger(context.Background(), lgr)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print kvlist version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

func runRoot(cmd *cobra.Command, args []string) error {
	f, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	run := settings.NewCliParams()
	run.MinLogLevel = int8(-logLevel) //nolint:gosec // flag values are small
	run.LogFile = logFile
	run.Mode = settings.Mode(f.Mode)
	run.Snapshot = renderSnapshot
	run.NoColor = noColor
	ctx := settings.IntoContext(rootCtx, run)
	lgr := logger.FromContext(ctx)

	records, err := loadRecords(ctx, args, f)
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	total := len(records)
	records = f.Limiter().Apply(records)
	lgr.V(1).Info("records loaded", "total", total, "shown", len(records))

	src := datasource.NewMemory(f.Data.Key, records...)
	sorter, err := f.Sorter()
	if err != nil {
		return err
	}
	if sorter != nil {
		src.SetSorter(sorter)
		src.Sort()
	}

	cfg, err := newTUIConfig(ctx, f, args)
	if err != nil {
		return err
	}
	cfg.List.Sorter = sorter

	if outline {
		out, err := tui.Outline(src, cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	if renderSnapshot {
		cfg.Width, cfg.Height = resolveSnapshotSize(snapshotWidth, snapshotHeight)
		out, err := tui.RenderSnapshot(src, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	cfg.Width, cfg.Height = snapshotWidth, snapshotHeight
	opts, cleanup := getProgramOptions()
	defer cleanup()
	chosen, err := tui.Run(src, cfg, opts...)
	if err != nil {
		return err
	}
	return printItems(cmd.OutOrStdout(), chosen, output)
}

// newTUIConfig builds the view config from the merged file and the run
// settings carried by ctx.
func newTUIConfig(ctx context.Context, f config.File, args []string) (tui.Config, error) {
	cfg, err := tui.FromFile(f)
	if err != nil {
		return cfg, err
	}
	if run, ok := settings.FromContext(ctx); ok {
		cfg.Mode = run.Mode
		cfg.NoColor = run.NoColor
	}
	lgr := logger.FromContext(ctx)
	cfg.Logger = logger.Component(lgr, string(cfg.Mode))
	cfg.StartKeys = startKeys
	cfg.Title = resolveTitle(args)
	return cfg, nil
}

func resolveTitle(args []string) string {
	switch {
	case strings.TrimSpace(title) != "":
		return title
	case sqlitePath != "":
		return filepath.Base(sqlitePath)
	case len(args) > 0:
		return filepath.Base(args[0])
	default:
		return settings.CliBinaryName
	}
}

// loadConfig merges the config file with the flags that were set explicitly.
func loadConfig(flags *pflag.FlagSet) (config.File, error) {
	f, err := config.Load(resolveConfigPath(configFile))
	if err != nil {
		return f, fmt.Errorf("load config: %w", err)
	}
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("mode", func() { f.Mode = mode })
	set("key", func() { f.Data.Key = keyField })
	set("parent-field", func() { f.Tree.ParentField = parentField })
	set("title-field", func() { f.Data.TitleField = titleField })
	set("body-field", func() { f.Data.BodyField = bodyField })
	set("collection", func() { f.Data.Collection = collection })
	set("children-field", func() { f.Data.ChildrenField = childrenField })
	set("sort", func() { f.Data.Sort = sortExpr })
	set("selectable", func() { f.List.Selectable = selectable })
	set("theme", func() { f.Theme.Preset = themeName })
	set("column-width", func() { f.Tree.ColumnWidth = columnWidth })
	set("render-margin", func() { f.List.RenderMargin = renderMargin })
	set("spacing", func() { f.List.Spacing = spacing })
	set("limit", func() { f.Data.Limit = limitRecords })
	set("offset", func() { f.Data.Offset = offsetRecords })
	set("tail", func() { f.Data.Tail = tailRecords })
	if variable {
		f.List.Fixed = false
	}
	if tiled {
		f.List.Tiled = true
	}
	if noRecycle {
		f.List.Recycle = false
	}
	return f, nil
}

// loadRecords reads the input named by the flags and arguments.
func loadRecords(ctx context.Context, args []string, f config.File) ([]datasource.Item, error) {
	opts := f.LoaderOptions()
	switch {
	case sqlitePath != "" && len(args) > 0:
		return nil, errors.New("--sqlite cannot be combined with a file argument")
	case sqlitePath != "":
		if strings.TrimSpace(query) == "" {
			return nil, errors.New("--sqlite requires --query")
		}
		return loader.LoadSQLite(ctx, sqlitePath, query, opts)
	case query != "":
		return nil, errors.New("--query requires --sqlite")
	case len(args) > 0:
		return loader.LoadFileRecords(args[0], opts)
	case stdinIsPiped():
		records, err := loader.LoadReaderRecords(stdinReader(), opts)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return records, nil
	default:
		return nil, errShowHelp
	}
}

// printItems writes the chosen items as NDJSON, YAML documents, or nothing.
func printItems(w io.Writer, items []datasource.Item, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return enc.Close()
	case "none":
	default:
		return fmt.Errorf("unknown output format %q (want json, yaml or none)", format)
	}
	return nil
}

// resolveConfigPath returns the explicit path if set, otherwise
// $XDG_CONFIG_HOME/kvlist/config.{yaml,toml} or ~/.config/kvlist/... if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		candidate := filepath.Join(dir, settings.CliBinaryName, name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentPreRunE = rootPersistentPreRunE
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "path to a YAML or TOML config file (default $XDG_CONFIG_HOME/kvlist/config.yaml)")
	pf.IntVar(&logLevel, "log-level", 0, "log verbosity; 1 logs layout passes")
	pf.StringVar(&logFile, "log-file", "", "append JSON logs to this file (interactive sessions log nowhere otherwise)")
	pf.BoolVar(&noColor, "no-color", false, "disable color output")

	f := rootCmd.Flags()
	f.StringVar(&mode, "mode", "", "view: list|tree (default from config)")
	f.StringVar(&keyField, "key", "", "field holding each record's id (default from config: id)")
	f.StringVar(&parentField, "parent-field", "", "field holding the parent id in tree mode")
	f.StringVar(&titleField, "title-field", "", "field shown as the item title")
	f.StringVar(&bodyField, "body-field", "", "markdown field shown under the title in variable-height lists")
	f.StringVar(&collection, "collection", "", "field of the input object holding the records")
	f.StringVar(&childrenField, "children-field", "", "flatten nested child lists from this field into tree records")
	f.StringVar(&sortExpr, "sort", "", "CEL sort key over each item bound to '_', e.g. '_.name' or '-_.priority'")
	f.StringVar(&selectable, "selectable", "", "selection mode: none|single|multi")
	f.StringVar(&themeName, "theme", "", "theme preset (see 'kvlist config themes')")
	f.StringVar(&title, "title", "", "header title (default: input name)")
	f.IntVar(&columnWidth, "column-width", 0, "tree column width")
	f.BoolVar(&variable, "variable", false, "variable-height cells laid out in time-sliced passes")
	f.BoolVar(&tiled, "tiled", false, "lay fixed-size cells out as a grid of tiles")
	f.BoolVar(&noRecycle, "no-recycle", false, "destroy cells that leave the window instead of pooling them")
	f.IntVar(&renderMargin, "render-margin", 0, "extra rows laid out above and below the viewport")
	f.IntVar(&spacing, "spacing", 0, "blank rows/columns between cells")
	f.BoolVar(&renderSnapshot, "snapshot", false, "render a single frame to stdout and exit; honors --width/--height")
	f.BoolVar(&outline, "outline", false, "print the parent/child hierarchy as an outline and exit")
	f.IntVar(&snapshotWidth, "width", 0, "view width in columns")
	f.IntVar(&snapshotHeight, "height", 0, "view height in rows")
	f.StringArrayVar(&startKeys, "press", nil, "keys pressed on startup, e.g. --press down --press right")
	f.StringVarP(&output, "output", "o", "json", "format for chosen items: json|yaml|none")
	f.StringVar(&sqlitePath, "sqlite", "", "sqlite database to read records from (requires --query)")
	f.StringVar(&query, "query", "", "SQL query whose rows become records")
	f.IntVar(&limitRecords, "limit", 0, "show at most N records")
	f.IntVar(&offsetRecords, "offset", 0, "skip the first N records")
	f.IntVar(&tailRecords, "tail", 0, "show the last N records (mutually exclusive with --limit; ignores --offset)")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newConfigCmd())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
