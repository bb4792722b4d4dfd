package extract

import (
	"encoding/csv"
	"io"
	"iter"
	"strings"
)

// CSV streams rows, skips fully-empty ones, joins cells with commas and
// yields buffered text once it reaches the chunk size. The whole file is
// never materialized.
func CSV(r io.Reader, chunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1

		var buf strings.Builder
		for {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				yield("Error extracting text from CSV: " + err.Error())
				return
			}

			if rowEmpty(row) {
				continue
			}

			buf.WriteString(strings.Join(row, ","))
			buf.WriteByte('\n')

			for buf.Len() >= chunkSize {
				text := buf.String()
				cut := cutPoint(text, chunkSize)
				if !yield(text[:cut]) {
					return
				}
				buf.Reset()
				buf.WriteString(text[cut:])
			}
		}

		if buf.Len() > 0 {
			yield(buf.String())
		}
	}
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
