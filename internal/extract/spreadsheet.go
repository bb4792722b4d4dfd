package extract

import (
	"io"
	"iter"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet iterates xlsx sheets and rows in file order, skips empty rows,
// joins cell values with spaces and yields buffered text at the chunk size.
func Spreadsheet(r io.Reader, chunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		workbook, err := excelize.OpenReader(r)
		if err != nil {
			yield("Error extracting text from XLSX: " + err.Error())
			return
		}
		defer workbook.Close()

		var buf strings.Builder
		for _, sheet := range workbook.GetSheetList() {
			rows, err := workbook.Rows(sheet)
			if err != nil {
				yield("Error extracting text from XLSX: " + err.Error())
				return
			}

			for rows.Next() {
				cells, err := rows.Columns()
				if err != nil {
					rows.Close()
					yield("Error extracting text from XLSX: " + err.Error())
					return
				}
				if rowEmpty(cells) {
					continue
				}

				buf.WriteString(strings.Join(cells, " "))
				buf.WriteByte('\n')

				for buf.Len() >= chunkSize {
					text := buf.String()
					cut := cutPoint(text, chunkSize)
					if !yield(text[:cut]) {
						rows.Close()
						return
					}
					buf.Reset()
					buf.WriteString(text[cut:])
				}
			}
			rows.Close()
		}

		if buf.Len() > 0 {
			yield(buf.String())
		}
	}
}
