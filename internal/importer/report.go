package importer

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Report summarizes a batch import.
type Report struct {
	Imported int
	Skipped  int
	Failed   int
	Bytes    uint64
	Errors   []error
}

// String renders a one-line summary.
func (r Report) String() string {
	return fmt.Sprintf("%d imported (%s), %d skipped, %d failed",
		r.Imported, humanize.Bytes(r.Bytes), r.Skipped, r.Failed)
}

// ImportFiles imports every path, collecting per-file failures
// instead of aborting the batch.
func (imp *Importer) ImportFiles(ctx context.Context, paths []string) Report {
	var rep Report
	for _, path := range paths {
		s, added, err := imp.ImportFile(ctx, path)
		switch {
		case err != nil:
			rep.Failed++
			rep.Errors = append(rep.Errors, err)
			imp.log.Warn("import failed", "path", path, "error", err)
		case added:
			rep.Imported++
			rep.Bytes += uint64(s.Size)
		default:
			rep.Skipped++
		}
	}
	imp.log.Info("import finished", "summary", rep.String())
	return rep
}
