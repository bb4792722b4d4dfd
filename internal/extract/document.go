package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Document extracts paragraph text from a docx archive, joins paragraphs
// with newlines and slices the result into fixed-size pieces. Word
// documents are bounded, so materializing the full text is acceptable.
func Document(r io.Reader, chunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		text, err := documentText(r)
		if err != nil {
			yield("Error extracting text from DOCX: " + err.Error())
			return
		}
		sliceFixed(text, chunkSize, yield)
	}
}

// documentText pulls the paragraph runs out of word/document.xml. A docx is
// a zip archive; the main document part is WordprocessingML where text lives
// in <w:t> elements and paragraphs end at </w:p>.
func documentText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("no word/document.xml part in archive")
	}

	rc, err := part.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}
