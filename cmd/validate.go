package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/output"
)

var validateDirFlag string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-validate every record and the index in an output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := validateDirFlag
		if dir == "" {
			if err := cfg.Validate("validate"); err != nil {
				return err
			}
			dir = cfg.Output.Dir
		}
		failed, err := validateDir(dir, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if failed > 0 {
			return eris.Errorf("validate: %d document(s) failed", failed)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDirFlag, "dir", "", "output directory (defaults to output.dir)")
	rootCmd.AddCommand(validateCmd)
}

// validateDir checks each record against the record schema and invariants,
// and index.json against the index schema. It returns how many documents
// failed.
func validateDir(dir string, w io.Writer) (int, error) {
	out, err := output.NewWriter(dir)
	if err != nil {
		return 0, err
	}
	files, err := out.RecordFiles()
	if err != nil {
		return 0, err
	}

	failed := 0
	report := func(name string, err error) {
		failed++
		var ve *assemble.ValidationError
		if errors.As(err, &ve) {
			for _, v := range ve.Violations {
				fmt.Fprintf(w, "%s: %s\n", name, v)
			}
			return
		}
		fmt.Fprintf(w, "%s: %v\n", name, err)
	}

	for _, path := range files {
		name := filepath.Base(path)
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return failed, eris.Wrapf(err, "validate: read %s", name)
		}
		var rec model.DeclarationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			report(name, err)
			continue
		}
		if err := assemble.ValidateJSON(assemble.SchemaRecord, data); err != nil {
			report(name, err)
			continue
		}
		if err := assemble.Validate(&rec); err != nil {
			report(name, err)
		}
	}

	indexPath := filepath.Join(dir, output.IndexFile)
	if data, err := os.ReadFile(indexPath); err == nil { //nolint:gosec
		if err := assemble.ValidateJSON(assemble.SchemaIndex, data); err != nil {
			report(output.IndexFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return failed, eris.Wrap(err, "validate: read index")
	}

	fmt.Fprintf(w, "validated %d record(s), %d failed\n", len(files), failed)
	return failed, nil
}
