// Package main is cmd/sqlshelf, the terminal front end for the editor
// brain: schema inspection, a line-oriented grid driver, the schema
// change planner, and the streaming import engine. It follows
// cmd/smf/main.go's shape (a cobra root command, one flag struct and one
// RunE func per subcommand) generalized from a cross-dialect
// diff/migrate/apply trio to sqlshelf's four subcommands,
// schema/grid/plan/import.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sqlshelf/internal/catalogue"
	"sqlshelf/internal/config"
	"sqlshelf/internal/core"
	"sqlshelf/internal/grid"
	"sqlshelf/internal/importer"
	"sqlshelf/internal/planner"
	"sqlshelf/internal/report"
	"sqlshelf/internal/sqlitedb"
)

type schemaFlags struct {
	db     string
	format string
}

type gridFlags struct {
	db     string
	table  string
	set    []string // "row,column,value"
	commit bool
}

type planFlags struct {
	db          string
	table       string
	format      string
	renameTable string
	addColumn   []string // "name:type"
	dropColumn  []string
}

type importFlags struct {
	db          string
	file        string
	sheet       string
	table       string
	create      bool
	headerRow   bool
	columnMap   []string // "source=target" (name) or "#index=target" (position)
	newColumns  []string // "name:type", used with --create
	autoIncrPK  string
	ignoreAll   bool
	format      string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqlshelf",
		Short: "Inspect and edit a SQLite database",
	}

	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, path string) (*sqlitedb.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("--db is required")
	}
	return sqlitedb.Open(ctx, sqlitedb.Options{Path: path, Out: os.Stderr})
}

func loadCatalogue(ctx context.Context, db *sqlitedb.DB) (*catalogue.Catalogue, error) {
	cat := catalogue.New(db)
	if parseErrs, err := cat.Refresh(ctx); err != nil {
		return nil, err
	} else if len(parseErrs) > 0 {
		for _, pe := range parseErrs {
			fmt.Fprintf(os.Stderr, "warning: %v\n", pe)
		}
	}
	return cat, nil
}

func schemaCmd() *cobra.Command {
	flags := &schemaFlags{}
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List every table, index, view, and trigger in the database",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSchema(flags)
		},
	}
	cmd.Flags().StringVar(&flags.db, "db", "", "Path to the SQLite database file (required)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "human", "Output format: human, json, sql, or summary")
	return cmd
}

func runSchema(flags *schemaFlags) error {
	ctx := context.Background()
	db, err := openDB(ctx, flags.db)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := loadCatalogue(ctx, db)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	out, err := formatter.FormatCatalogue(report.NewCatalogueView(cat.Current()))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func gridCmd() *cobra.Command {
	flags := &gridFlags{}
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "List, edit, and commit a table's rows from the terminal",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runGrid(flags)
		},
	}
	cmd.Flags().StringVar(&flags.db, "db", "", "Path to the SQLite database file (required)")
	cmd.Flags().StringVarP(&flags.table, "table", "t", "", "Table to open (required)")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "row,column,value to apply before printing (repeatable)")
	cmd.Flags().BoolVar(&flags.commit, "commit", false, "Commit pending edits after applying --set flags")
	return cmd
}

func runGrid(flags *gridFlags) error {
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	ctx := context.Background()
	db, err := openDB(ctx, flags.db)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := loadCatalogue(ctx, db)
	if err != nil {
		return err
	}
	entity, ok := cat.Current().Get(core.CategoryTable, flags.table)
	if !ok {
		return fmt.Errorf("no table named %q", flags.table)
	}
	table := entity.(*core.Table)

	g, err := grid.Construct(ctx, db, table, config.DefaultGrid())
	if err != nil {
		return err
	}
	g.SetTriggers(cat.Current().TriggersOn(table.Name))

	for _, spec := range flags.set {
		parts := strings.SplitN(spec, ",", 3)
		if len(parts) != 3 {
			return fmt.Errorf("--set must be row,column,value, got %q", spec)
		}
		row, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("--set row %q is not an integer", parts[0])
		}
		if err := g.SetValue(row, parts[1], parts[2]); err != nil {
			return err
		}
	}

	if flags.commit {
		if err := g.Commit(ctx, config.DefaultImport().SavepointName); err != nil {
			return err
		}
	}

	printGridRows(g, table)
	return nil
}

func printGridRows(g *grid.Grid, table *core.Table) {
	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	fmt.Println(strings.Join(names, "\t"))
	for row := 0; row < g.RowCount(); row++ {
		values := make([]string, len(names))
		for i, name := range names {
			v, err := g.ValueAt(row, name)
			if err != nil {
				values[i] = "<error>"
				continue
			}
			values[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(values, "\t"))
	}
}

func planCmd() *cobra.Command {
	flags := &planFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan an ALTER TABLE (SIMPLE or COMPLEX) and print the statement script",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPlan(flags)
		},
	}
	cmd.Flags().StringVar(&flags.db, "db", "", "Path to the SQLite database file (required)")
	cmd.Flags().StringVarP(&flags.table, "table", "t", "", "Table to edit (required)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "human", "Output format: human, json, sql, or summary")
	cmd.Flags().StringVar(&flags.renameTable, "rename-table", "", "New name for the table")
	cmd.Flags().StringArrayVar(&flags.addColumn, "add-column", nil, "name:type to add (repeatable)")
	cmd.Flags().StringArrayVar(&flags.dropColumn, "drop-column", nil, "column name to drop (repeatable)")
	return cmd
}

func runPlan(flags *planFlags) error {
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	ctx := context.Background()
	db, err := openDB(ctx, flags.db)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := loadCatalogue(ctx, db)
	if err != nil {
		return err
	}
	entity, ok := cat.Current().Get(core.CategoryTable, flags.table)
	if !ok {
		return fmt.Errorf("no table named %q", flags.table)
	}
	table := entity.(*core.Table)

	edit := &planner.TableEdit{Table: table, NewTableName: flags.renameTable}
	for _, spec := range flags.addColumn {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("--add-column must be name:type, got %q", spec)
		}
		edit.AddedColumns = append(edit.AddedColumns, planner.ColumnAdd{
			Column: &core.Column{ColumnID: core.NewColumnID(), Name: parts[0], Type: parts[1]},
		})
	}
	for _, name := range flags.dropColumn {
		col := table.FindColumn(name)
		if col == nil {
			return fmt.Errorf("no column named %q on table %q", name, flags.table)
		}
		edit.DroppedColumnIDs = append(edit.DroppedColumnIDs, col.ColumnID)
	}

	script, decision, err := planner.Plan(cat.Current(), edit)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	out, err := formatter.FormatPlan(report.NewPlanView(flags.table, script, decision))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func importCmd() *cobra.Command {
	flags := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stream a CSV/JSON/YAML/XLSX source into a table",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runImport(flags)
		},
	}
	cmd.Flags().StringVar(&flags.db, "db", "", "Path to the SQLite database file (required)")
	cmd.Flags().StringVar(&flags.file, "file", "", "Path to the source file (required)")
	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "Sheet/section name (defaults to the source's only sheet)")
	cmd.Flags().StringVarP(&flags.table, "table", "t", "", "Target table (required)")
	cmd.Flags().BoolVar(&flags.create, "create", false, "Create the target table")
	cmd.Flags().BoolVar(&flags.headerRow, "header-row", false, "Treat the first row as a header, not data")
	cmd.Flags().StringArrayVar(&flags.columnMap, "map", nil, "source=target column mapping by name, or #index=target by position (repeatable)")
	cmd.Flags().StringArrayVar(&flags.newColumns, "new-column", nil, "name:type for --create (repeatable)")
	cmd.Flags().StringVar(&flags.autoIncrPK, "auto-increment", "", "Add an INTEGER PRIMARY KEY AUTOINCREMENT column of this name with --create")
	cmd.Flags().BoolVar(&flags.ignoreAll, "ignore-errors", false, "Continue past every row error instead of rolling back the import at the first one")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "human", "Output format: human, json, sql, or summary")
	return cmd
}

func runImport(flags *importFlags) error {
	if flags.file == "" {
		return fmt.Errorf("--file is required")
	}
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}

	ctx := context.Background()
	db, err := openDB(ctx, flags.db)
	if err != nil {
		return err
	}
	defer db.Close()

	reader, err := importer.DetectFormat(flags.file)
	if err != nil {
		return err
	}

	mapping := importer.SheetMapping{
		SheetName:           flags.sheet,
		TargetTable:         flags.table,
		CreateTable:         flags.create,
		AutoIncrementColumn: flags.autoIncrPK,
		HeaderRow:           flags.headerRow,
	}
	for _, spec := range flags.newColumns {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("--new-column must be name:type, got %q", spec)
		}
		mapping.NewColumns = append(mapping.NewColumns, importer.NewColumn{Name: parts[0], Type: parts[1]})
	}
	for _, spec := range flags.columnMap {
		cm, err := parseColumnMapping(spec)
		if err != nil {
			return err
		}
		mapping.Columns = append(mapping.Columns, cm)
	}

	errorCount := 0
	progress := func(p importer.Progress) importer.Decision {
		if p.Error != nil {
			errorCount++
			fmt.Fprintf(os.Stderr, "row %d: %v\n", p.Index, p.Error)
			if flags.ignoreAll {
				return importer.DecisionContinue
			}
			return importer.DecisionRollback
		}
		return importer.DecisionContinue
	}

	result, err := importer.Run(ctx, db, config.DefaultImport(), reader, flags.file, []importer.SheetMapping{mapping}, progress)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	out, err := formatter.FormatImportResult(report.NewImportResultView(result))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// parseColumnMapping parses "source=target" (named) or "#2=target"
// (positional, 0-based) into an importer.ColumnMapping.
func parseColumnMapping(spec string) (importer.ColumnMapping, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return importer.ColumnMapping{}, fmt.Errorf("--map must be source=target, got %q", spec)
	}
	source, target := parts[0], parts[1]
	if strings.HasPrefix(source, "#") {
		idx, err := strconv.Atoi(strings.TrimPrefix(source, "#"))
		if err != nil {
			return importer.ColumnMapping{}, fmt.Errorf("invalid positional source %q in --map", source)
		}
		return importer.ColumnMapping{SourceIndex: idx, TargetColumn: target}, nil
	}
	return importer.ColumnMapping{SourceName: source, TargetColumn: target}, nil
}
