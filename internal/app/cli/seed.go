// internal/app/cli/seed.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/system/sheet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by seed-districts:
//
//	districts:
//	  - Bengaluru Urban
//	  - Mysuru
type SeedFile struct {
	Districts []string `yaml:"districts"`
}

// readSeed loads district names from a .yaml/.yml or .csv file. Rejected
// CSV lines are logged and skipped.
func (rn *runner) readSeed(path string, r io.Reader) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		names, rowErrs, err := sheet.ParseDistrictCSV(r)
		if err != nil {
			return nil, err
		}
		for _, re := range rowErrs {
			rn.logger.Warn("district row skipped", zap.String("row", re.String()))
		}
		return names, nil
	case ".yaml", ".yml":
		var f SeedFile
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return f.Districts, nil
	default:
		return nil, fmt.Errorf("%s: expected a .yaml, .yml or .csv file", path)
	}
}

func (rn *runner) seedDistrictsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-districts",
		Short: "Create districts listed in a YAML or CSV file; existing names are left alone",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			names, err := rn.readSeed(file, f)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return errors.New("no district names found")
			}
			return rn.with(cmd.Context(), func(ctx context.Context, b Backend) error {
				res, err := records.New(b.Repo, b.Blobs, rn.logger, nil).SeedDistricts(ctx, names)
				if err != nil {
					return err
				}
				fmt.Fprintf(rn.out, "created %d, already present %d\n", len(res.Created), len(res.Existing))
				for _, n := range res.Created {
					fmt.Fprintln(rn.out, "  +", n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "districts file (.yaml or .csv)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
