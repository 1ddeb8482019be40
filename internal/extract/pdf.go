package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts normalized text from raw PDF bytes. Pages are joined with a
// newline before whitespace is collapsed. A document yielding fewer than
// minChars characters fails with *InsufficientContentError; anything the
// parser rejects fails with *ExtractionError.
func PDF(data []byte, minChars int) (text string, err error) {
	pages, err := pdfPages(data)
	if err != nil {
		return "", &ExtractionError{Err: err}
	}
	return fromPages(pages, minChars)
}

func pdfPages(data []byte) (pages []string, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if content != "" {
			pages = append(pages, content)
		}
	}
	return pages, nil
}
