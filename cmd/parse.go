package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/extract"
	"github.com/sells-group/disclosure-cli/internal/fetcher"
	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/pdftext"
)

var (
	parseFile string
	parseID   string
	parseName string
	parseBase string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract a local declaration file and print the record",
	Long:  "Runs the HTML or PDF extractor on a file already on disk and prints the assembled record as JSON. No network access.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("parse"); err != nil {
			return err
		}
		meta := model.SubjectMetadata{SubjectID: parseID, Name: parseName}
		rec, err := parseDeclaration(cmd.Context(), parseFile, meta, parseBase, pdftext.NewPdfToText(cfg.PDF.PdfToTextPath))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFile, "file", "", "declaration file (.html or .pdf)")
	parseCmd.Flags().StringVar(&parseID, "id", "local", "subject id stamped on the record")
	parseCmd.Flags().StringVar(&parseName, "name", "", "subject name stamped on the record")
	parseCmd.Flags().StringVar(&parseBase, "base", extract.DefaultSite, "base URL for resolving relative links")
	_ = parseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseCmd)
}

// parseDeclaration extracts path and assembles the record. A record that
// fails validation is still returned, with its issues attached.
func parseDeclaration(ctx context.Context, path string, meta model.SubjectMetadata, base string, te extract.TextExtractor) (*model.DeclarationRecord, error) {
	body, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, eris.Wrapf(err, "parse: read %s", path)
	}
	if meta.SubjectID == "" {
		meta.SubjectID = "local"
	}
	if meta.Name == "" {
		meta.Name = filepath.Base(path)
	}

	resp := &fetcher.Response{URL: path, Body: body}
	var res extract.Result
	if resp.IsPDF() {
		res = extract.ExtractPDF(ctx, te, body)
	} else {
		res = extract.ExtractHTMLFrom(fetcher.DecodeBody(resp), base)
	}

	rec, err := assemble.Assemble(meta, res, nowFunc())
	var ve *assemble.ValidationError
	if errors.As(err, &ve) {
		zap.L().Warn("parse: record failed validation", zap.Strings("violations", ve.Violations))
		return rec, nil
	}
	return rec, err
}
