package engine

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/program"
)

// ErrNoMatchingProducts means the filtered candidate set is empty. This is a
// non-fatal skip at the scheduler level, not an error.
var ErrNoMatchingProducts = errors.New("no products match the program categories")

// Selector picks the next product per the program's selection mode,
// maintaining the rotation cycle state on the program itself.
type Selector struct {
	randIntn func(n int) int
}

func NewSelector() *Selector {
	return &Selector{randIntn: rand.Intn}
}

// SelectNext returns the next product for the program. For rotating mode the
// program's CycleServed set is mutated; the caller persists it.
func (s *Selector) SelectNext(p *program.Program, candidates []catalog.Product) (catalog.Product, error) {
	if len(candidates) == 0 {
		return catalog.Product{}, ErrNoMatchingProducts
	}

	ordered := make([]catalog.Product, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	switch p.SelectionMode {
	case program.SelectionRotating:
		return s.selectRotating(p, ordered), nil
	case program.SelectionRandom:
		return ordered[s.randIntn(len(ordered))], nil
	case program.SelectionLowestPrice:
		return selectLowestPrice(ordered), nil
	case program.SelectionMostRecent:
		return selectMostRecent(ordered), nil
	default:
		// unknown modes behave like rotating, the safest default
		return s.selectRotating(p, ordered), nil
	}
}

func (s *Selector) selectRotating(p *program.Program, ordered []catalog.Product) catalog.Product {
	for _, c := range ordered {
		if p.InCycle(c.ID) {
			continue
		}
		p.CycleServed = append(p.CycleServed, c.ID)
		// cycle completed: the state would now equal the full candidate
		// set, so reset it instead of persisting the whole set
		if len(p.CycleServed) >= len(ordered) {
			p.CycleServed = nil
		}
		return c
	}

	// every candidate was already served (stale state, e.g. the catalog
	// shrank): restart the cycle seeded with the first candidate
	first := ordered[0]
	p.CycleServed = []string{first.ID}
	if len(ordered) == 1 {
		p.CycleServed = nil
	}
	return first
}

func selectLowestPrice(ordered []catalog.Product) catalog.Product {
	best := ordered[0]
	for _, c := range ordered[1:] {
		switch {
		case c.Price < best.Price:
			best = c
		case c.Price == best.Price && c.CreatedAt.After(best.CreatedAt):
			best = c
		case c.Price == best.Price && c.CreatedAt.Equal(best.CreatedAt) && c.ID < best.ID:
			best = c
		}
	}
	return best
}

func selectMostRecent(ordered []catalog.Product) catalog.Product {
	best := ordered[0]
	for _, c := range ordered[1:] {
		if c.CreatedAt.After(best.CreatedAt) {
			best = c
		}
	}
	return best
}
