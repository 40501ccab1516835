package creative

import (
	"context"

	"github.com/ofertazap/ofertazap/domains/catalog"
)

// Context carries the program hints the generative service may use.
type Context struct {
	ProgramName string
	Prefix      string
	Suffix      string
	WithPrice   bool
	WithLink    bool
}

// IGenerativeComposer is the external AI text service. Calls are bounded by
// the caller's context; on timeout or failure the composer falls back to the
// deterministic template.
type IGenerativeComposer interface {
	Generate(ctx context.Context, product catalog.Product, creativeCtx Context) (string, error)
}
