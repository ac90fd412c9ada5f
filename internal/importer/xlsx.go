package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/model"
)

// ReadXLSX reads businesses from the first sheet. The first row is the
// header; unknown columns are ignored.
func ReadXLSX(path string) ([]model.Business, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols := mapColumns(rowToStrings(sheet.Rows[0]))
	var out []model.Business
	var skipped int
	for _, row := range sheet.Rows[1:] {
		b, ok := cols.business(rowToStrings(row))
		if !ok {
			skipped++
			continue
		}
		out = append(out, b)
	}

	if skipped > 0 {
		zap.L().Debug("importer: skipped xlsx rows",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
