package extract

import (
	"bytes"
	"io"
	"iter"

	"github.com/ledongthuc/pdf"
)

// PDFTextFunc is the layout-aware full-text capability the PDF extractor
// depends on. It is a package variable so deployments can swap or disable
// the capability without touching the extractor.
type PDFTextFunc func(r io.Reader) (string, error)

var pdfText PDFTextFunc = pdfPlainText

// SetPDFCapability replaces the PDF text capability and returns the previous
// one. Passing nil disables PDF extraction entirely.
func SetPDFCapability(fn PDFTextFunc) PDFTextFunc {
	prev := pdfText
	pdfText = fn
	return prev
}

// PDF extracts the full document text and slices it into fixed-size pieces.
// When no text capability is available it yields a single diagnostic chunk
// naming the missing capability rather than failing the scan.
func PDF(r io.Reader, chunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if pdfText == nil {
			yield("PDF extraction requires a layout-aware PDF text capability and none is registered")
			return
		}

		text, err := pdfText(r)
		if err != nil {
			yield("Error extracting text from PDF: " + err.Error())
			return
		}
		sliceFixed(text, chunkSize, yield)
	}
}

// pdfPlainText is the default capability, backed by the ledongthuc/pdf
// reader. PDFs are bounded documents, so buffering the source is fine.
func pdfPlainText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
