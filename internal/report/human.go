package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

type humanFormatter struct{}

func (humanFormatter) FormatCatalogue(v CatalogueView) (string, error) {
	var b strings.Builder
	writeSection := func(title string, items []EntitySummary) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s (%d):\n", title, len(items))
		for _, e := range items {
			if e.ColumnCount > 0 {
				fmt.Fprintf(&b, "  %s (%d columns)\n", e.Name, e.ColumnCount)
			} else {
				fmt.Fprintf(&b, "  %s\n", e.Name)
			}
		}
	}
	writeSection("Tables", v.Tables)
	writeSection("Indexes", v.Indexes)
	writeSection("Views", v.Views)
	writeSection("Triggers", v.Triggers)
	return b.String(), nil
}

func (humanFormatter) FormatPlan(v PlanView) (string, error) {
	var b strings.Builder
	if v.Simple {
		fmt.Fprintf(&b, "%s: SIMPLE (in-place ALTER)\n", v.Table)
	} else {
		fmt.Fprintf(&b, "%s: COMPLEX (rebuild required)\n", v.Table)
		for _, r := range v.Reasons {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	for _, stmt := range normalizeStatements(v.Statements) {
		fmt.Fprintf(&b, "%s\n", stmt)
	}
	return b.String(), nil
}

func (humanFormatter) FormatImportResult(v ImportResultView) (string, error) {
	var b strings.Builder
	for table, count := range v.CountPerTable {
		fmt.Fprintf(&b, "%s: %s inserted, %d errors\n", table, humanize.Comma(int64(count)), v.ErrorsPerTable[table])
	}
	for table, errs := range v.ErrorsPerTable {
		if _, ok := v.CountPerTable[table]; !ok && errs > 0 {
			fmt.Fprintf(&b, "%s: 0 inserted, %d errors\n", table, errs)
		}
	}
	return b.String(), nil
}
