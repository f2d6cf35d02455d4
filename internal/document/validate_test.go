package document

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds the smallest well-formed single-page PDF, computing xref
// offsets from the actual byte positions so the file always parses.
func minimalPDF() []byte {
	var buf bytes.Buffer
	offsets := make([]int, 4)

	buf.WriteString("%PDF-1.4\n")
	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n")

	xref := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}

func TestValidatePDFAcceptsWellFormedDocument(t *testing.T) {
	require.NoError(t, ValidatePDF(minimalPDF()))
}

func TestValidatePDFRejectsEmptyInput(t *testing.T) {
	err := ValidatePDF(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	err := ValidatePDF([]byte("this is definitely not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid PDF")
}

func TestValidatePDFRejectsTruncatedDocument(t *testing.T) {
	pdf := minimalPDF()
	err := ValidatePDF(pdf[:len(pdf)/2])
	require.Error(t, err)
}
