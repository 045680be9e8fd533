package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"datasnap/internal/config"
	"datasnap/internal/domain"
	"datasnap/internal/service"
)

var errEnvUnset = errors.New("DATASNAP_DB_URL is not set. Export it with a postgresql:// or mysql:// connection string")

// actionFlags are the post-import inspection actions shared by every import
// command. At most one action runs; with none set, the import result itself
// is printed.
type actionFlags struct {
	row       int64
	filter    string
	limit     int64
	offset    int64
	query     string
	checksums bool
	startRow  int64
	endRow    int64
	verify    string
	overrides []string
	samples   bool
	schema    bool
	info      bool
}

func (a *actionFlags) register(fs *pflag.FlagSet) {
	fs.Int64Var(&a.row, "row", 0, "Fetch one row by 1-based row number")
	fs.StringVar(&a.filter, "filter", "", "Fetch rows matching a SQL predicate")
	fs.Int64Var(&a.limit, "limit", 0, "Page size for --filter (default from config, capped at 1000)")
	fs.Int64Var(&a.offset, "offset", 0, "Page offset for --filter")
	fs.StringVar(&a.query, "query", "", "Run a read-only SELECT against imported_data")
	fs.BoolVar(&a.checksums, "checksums", false, "Compute row checksums")
	fs.Int64Var(&a.startRow, "start-row", 1, "First row for --checksums")
	fs.Int64Var(&a.endRow, "end-row", 0, "Last row for --checksums (0 = end)")
	fs.StringVar(&a.verify, "verify", "", "Verify a checksum as <row>:<digest>")
	fs.StringArrayVar(&a.overrides, "override", nil, "Type override as <column>=<type>, repeatable")
	fs.BoolVar(&a.samples, "samples", false, "Print distinct sample values per column")
	fs.BoolVar(&a.schema, "schema", false, "Print the schema with active overrides")
	fs.BoolVar(&a.info, "info", false, "Print source info with the schema signature")
}

func (a *actionFlags) run(cmd *cobra.Command, cfg *config.Config, svc *service.DataService, imported *domain.ImportResult) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Overrides apply before any read action.
	for _, o := range a.overrides {
		column, newType, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("invalid --override %q, expected <column>=<type>", o)
		}
		if _, err := svc.OverrideColumnType(ctx, column, newType); err != nil {
			return err
		}
	}

	switch {
	case a.row > 0:
		row, err := svc.GetRow(ctx, a.row)
		if err != nil {
			return err
		}
		return printJSON(out, row)
	case a.filter != "":
		limit := a.limit
		if limit <= 0 {
			limit = int64(cfg.DefaultFilterLimit)
		}
		result, err := svc.GetRowsByFilter(ctx, a.filter, limit, a.offset)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	case a.query != "":
		result, err := svc.QueryData(ctx, a.query)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	case a.checksums:
		results, err := svc.ComputeChecksums(ctx, a.startRow, a.endRow)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]interface{}{
			"checksums": results,
			"count":     len(results),
		})
	case a.verify != "":
		rowPart, digest, ok := strings.Cut(a.verify, ":")
		if !ok {
			return fmt.Errorf("invalid --verify %q, expected <row>:<digest>", a.verify)
		}
		var rowNumber int64
		if _, err := fmt.Sscanf(rowPart, "%d", &rowNumber); err != nil {
			return fmt.Errorf("invalid row number %q in --verify", rowPart)
		}
		result, err := svc.VerifyChecksum(ctx, rowNumber, digest)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	case a.samples:
		samples, err := svc.GetColumnSamples(ctx, cfg.MaxSamples)
		if err != nil {
			return err
		}
		return printJSON(out, samples)
	case a.schema:
		schema, err := svc.GetSchema(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, schema)
	case a.info:
		info, err := svc.SourceInfo(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, info)
	default:
		return printJSON(out, imported)
	}
}
