// Package pdftext converts declaration PDFs to plain text.
package pdftext

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText writes raw to a temporary file and runs
// pdftotext -layout -enc UTF-8 on it, returning stdout. Layout mode keeps the
// form's columns apart with runs of spaces.
func (p *PdfToText) ExtractText(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", eris.New("pdftext: empty document")
	}

	tmp, err := os.CreateTemp("", "declaration-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "pdftext: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return "", eris.Wrap(err, "pdftext: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "pdftext: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-enc", "UTF-8", tmp.Name(), "-") //nolint:gosec

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "pdftext: pdftotext failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
