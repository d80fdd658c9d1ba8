package report

import (
	"sort"

	"sqlshelf/internal/core"
	"sqlshelf/internal/importer"
	"sqlshelf/internal/planner"
)

// EntitySummary is one row of a catalogue listing.
type EntitySummary struct {
	Name        string
	SQL         string
	ColumnCount int // tables only; 0 for index/view/trigger
}

// CatalogueView is the read-only projection of a core.Catalogue the
// report package renders — the schema command's output.
type CatalogueView struct {
	Tables   []EntitySummary
	Indexes  []EntitySummary
	Views    []EntitySummary
	Triggers []EntitySummary
}

// NewCatalogueView builds a CatalogueView from a live catalogue, sorted
// by name within each category.
func NewCatalogueView(cat *core.Catalogue) CatalogueView {
	v := CatalogueView{}
	for _, t := range cat.Tables {
		v.Tables = append(v.Tables, EntitySummary{Name: t.Name, SQL: t.SQL, ColumnCount: len(t.Columns)})
	}
	for _, i := range cat.Indexes {
		v.Indexes = append(v.Indexes, EntitySummary{Name: i.Name, SQL: i.SQL})
	}
	for _, vw := range cat.Views {
		v.Views = append(v.Views, EntitySummary{Name: vw.Name, SQL: vw.SQL})
	}
	for _, tr := range cat.Triggers {
		v.Triggers = append(v.Triggers, EntitySummary{Name: tr.Name, SQL: tr.SQL})
	}
	sortByName(v.Tables)
	sortByName(v.Indexes)
	sortByName(v.Views)
	sortByName(v.Triggers)
	return v
}

func sortByName(items []EntitySummary) {
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}

// PlanView is the planner command's output: the SIMPLE/COMPLEX decision
// plus the emitted statement script.
type PlanView struct {
	Table          string
	Simple         bool
	Reasons        []string
	Statements     []string
	RenamedTable   string
	RenamedColumns map[string]string
}

// NewPlanView projects a planner.Script and its Decision for rendering.
func NewPlanView(tableName string, script *planner.Script, decision planner.Decision) PlanView {
	v := PlanView{
		Table:   tableName,
		Simple:  decision.Simple,
		Reasons: decision.Reasons,
	}
	if script != nil {
		v.Statements = script.Statements
		v.RenamedTable = script.RenamedTable
		v.RenamedColumns = script.RenamedColumns
	}
	return v
}

// ImportResultView is the import command's output: rows inserted/errored
// per target table.
type ImportResultView struct {
	CountPerTable  map[string]int
	ErrorsPerTable map[string]int
}

// NewImportResultView projects an importer.Result for rendering.
func NewImportResultView(r importer.Result) ImportResultView {
	return ImportResultView{CountPerTable: r.CountPerTable, ErrorsPerTable: r.ErrorsPerTable}
}
