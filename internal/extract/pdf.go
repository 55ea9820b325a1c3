// ABOUTME: Embedded PDF text reading using ledongthuc/pdf
// ABOUTME: Parser panics on malformed files are converted into extraction errors
package extract

import (
	"fmt"
	"os"

	"github.com/harper/docqa/internal/models"
	"github.com/ledongthuc/pdf"
)

// ReadPDFText returns the plain text of each page. Pages without content
// streams yield empty strings so indexes stay aligned with page numbers.
func ReadPDFText(path string) (texts []string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", models.ErrIO, path, statErr)
	}

	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("%w: malformed PDF %s: %v", models.ErrExtraction, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF %s: %v", models.ErrExtraction, path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	texts = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}

	return texts, nil
}
