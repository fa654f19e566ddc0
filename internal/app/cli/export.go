// internal/app/cli/export.go
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/services/reporting"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/sheet"
	"github.com/spf13/cobra"
)

func (rn *runner) exportCmd() *cobra.Command {
	var out, district string
	var maxRows int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the all-data export to an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := strings.ToLower(filepath.Ext(out))
			if ext != ".xlsx" && ext != ".csv" {
				return fmt.Errorf("%s: output must end in .xlsx or .csv", out)
			}
			return rn.with(cmd.Context(), func(ctx context.Context, b Backend) error {
				scope := repo.AllRows()
				if district != "" {
					d, err := b.Repo.Districts().GetByName(ctx, district)
					if err != nil {
						return fmt.Errorf("district %q: %w", district, err)
					}
					scope = repo.InDistrict(d.ID)
				}

				svc := reporting.New(b.Repo, rn.logger)
				svc.MaxExportRows = maxRows
				t, err := svc.ExportAll(ctx, scope)
				if err != nil {
					return err
				}

				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if ext == ".csv" {
					err = sheet.WriteCSV(f, t)
				} else {
					err = sheet.WriteXLSX(f, t)
				}
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(rn.out, "wrote %d rows to %s\n", len(t.Rows), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.xlsx or .csv)")
	cmd.Flags().StringVar(&district, "district", "", "limit to one district by name")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "row cap (0 means no cap)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
