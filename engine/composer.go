package engine

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/creative"
	"github.com/ofertazap/ofertazap/domains/program"
)

const defaultCreativeTimeout = 8 * time.Second

// Composer builds the outbound content for a (product, program) pair. The
// generative service is optional; the deterministic template is always
// available and is the only path when the program disables AI creatives.
type Composer struct {
	generative creative.IGenerativeComposer
	timeout    time.Duration
}

func NewComposer(generative creative.IGenerativeComposer, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = defaultCreativeTimeout
	}
	return &Composer{generative: generative, timeout: timeout}
}

// Compose never fails: any generative error or timeout falls back to the
// deterministic template.
func (c *Composer) Compose(ctx context.Context, product catalog.Product, p program.Program) channel.Content {
	content := channel.Content{ProductID: product.ID}
	if p.Content.IncludeImage {
		content.ImageURL = product.ImageURL
	}

	if p.Content.UseAICreative && c.generative != nil {
		genCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.generative.Generate(genCtx, product, creative.Context{
			ProgramName: p.Name,
			Prefix:      p.Content.Prefix,
			Suffix:      p.Content.Suffix,
			WithPrice:   p.Content.IncludePrice,
			WithLink:    p.Content.IncludeLink,
		})
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			content.Text = text
			return content
		}
		logrus.WithError(err).Warnf("[COMPOSER] Generative call failed for product %s, using template", product.ID)
	}

	content.Text = RenderTemplate(product, p.Content)
	return content
}

// RenderTemplate is the pure fallback: prefix + product fields gated by the
// content booleans + suffix.
func RenderTemplate(product catalog.Product, opts program.ContentOptions) string {
	var lines []string
	if opts.Prefix != "" {
		lines = append(lines, opts.Prefix)
	}

	lines = append(lines, product.Name)
	if opts.IncludePrice {
		lines = append(lines, "R$ "+humanize.FormatFloat("#.###,##", product.Price))
	}
	if opts.IncludeLink && product.Link != "" {
		lines = append(lines, product.Link)
	}

	if opts.Suffix != "" {
		lines = append(lines, opts.Suffix)
	}
	return strings.Join(lines, "\n")
}
