package extract

import (
	"context"

	"github.com/relaylabs/relay/internal/nemsis"
)

// Extractor turns a committed transcript increment into a merged clinical
// record. Implementations must honor the merge contract: existing non-nil
// scalars are never replaced, list fields are unioned, and a failed
// extraction returns the existing record unchanged rather than an error on
// the ingestion path.
type Extractor interface {
	Extract(ctx context.Context, increment string, existing *nemsis.Record) (*nemsis.Record, error)
}
