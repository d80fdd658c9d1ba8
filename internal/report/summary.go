package report

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// summaryFormatter renders a one-line-per-subject count, matching the
// teacher's summaryFormatter's "just the numbers" brevity.
type summaryFormatter struct{}

func (summaryFormatter) FormatCatalogue(v CatalogueView) (string, error) {
	return fmt.Sprintf("%d tables, %d indexes, %d views, %d triggers",
		len(v.Tables), len(v.Indexes), len(v.Views), len(v.Triggers)), nil
}

func (summaryFormatter) FormatPlan(v PlanView) (string, error) {
	if v.Simple {
		return fmt.Sprintf("%s: SIMPLE, %d statement(s)", v.Table, len(v.Statements)), nil
	}
	return fmt.Sprintf("%s: COMPLEX, %d statement(s), %d reason(s)", v.Table, len(v.Statements), len(v.Reasons)), nil
}

func (summaryFormatter) FormatImportResult(v ImportResultView) (string, error) {
	var total, errs int
	for _, c := range v.CountPerTable {
		total += c
	}
	for _, e := range v.ErrorsPerTable {
		errs += e
	}
	return fmt.Sprintf("%s row(s) inserted, %d error(s) across %d table(s)", humanize.Comma(int64(total)), errs, len(v.CountPerTable)), nil
}
