// Package document validates uploaded files before they are forwarded to the
// signing provider.
package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxDefaultUploadBytes is the fallback upload cap when configuration is
// silent.
const MaxDefaultUploadBytes = 20 << 20

// ValidatePDF checks that data is a parseable PDF with at least one page.
// Relaxed validation mirrors what mainstream viewers accept, so slightly
// malformed but renderable contracts are not bounced.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("document is empty")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	rs := bytes.NewReader(data)
	if err := api.Validate(rs, conf); err != nil {
		return fmt.Errorf("not a valid PDF: %w", err)
	}

	if _, err := rs.Seek(0, 0); err != nil {
		return err
	}
	pages, err := api.PageCount(rs, conf)
	if err != nil {
		return fmt.Errorf("could not determine page count: %w", err)
	}
	if pages < 1 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}
