package report

import (
	"encoding/csv"
	"io"

	"github.com/scriptureforge/draft-audit/internal/reconstruct"
)

// WriteCSV serializes the rows and summary trailer as CSV. Nil cells
// render as empty strings; CSV has no null representation.
func WriteCSV(w io.Writer, rows []Row, stats reconstruct.DurationStats) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(stringCells(row.Values())); err != nil {
			return err
		}
	}
	for _, trailer := range SummaryRows(stats) {
		if err := cw.Write(stringCells(trailer)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func stringCells(values []*string) []string {
	cells := make([]string, len(values))
	for i, v := range values {
		if v != nil {
			cells[i] = *v
		}
	}
	return cells
}
