package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/creative"
	"github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/domains/program"
)

type fakeRepo struct {
	mu       sync.Mutex
	programs map[string]program.Program
	saved    []program.Program
	saveErr  error
}

func newFakeRepo(programs ...program.Program) *fakeRepo {
	r := &fakeRepo{programs: make(map[string]program.Program)}
	for _, p := range programs {
		r.programs[p.ID] = p
	}
	return r
}

func (r *fakeRepo) GetProgram(_ context.Context, id string) (program.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return program.Program{}, errors.New("program not found")
	}
	return p, nil
}

func (r *fakeRepo) ListPrograms(_ context.Context) ([]program.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []program.Program
	for _, p := range r.programs {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) ListActivePrograms(ctx context.Context) ([]program.Program, error) {
	all, _ := r.ListPrograms(ctx)
	var out []program.Program
	for _, p := range all {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveRunState(_ context.Context, p program.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.programs[p.ID] = p
	r.saved = append(r.saved, p)
	return nil
}

func (r *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return errors.New("program not found")
	}
	p.Active = active
	r.programs[id] = p
	return nil
}

func (r *fakeRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *fakeRepo) lastSaved() program.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[len(r.saved)-1]
}

type fakeCatalog struct {
	products []catalog.Product
	err      error
}

func (c *fakeCatalog) FindByCategories(context.Context, []string) ([]catalog.Product, error) {
	return c.products, c.err
}

type fakeDirectory struct {
	targets []group.Target
	err     error
}

func (d *fakeDirectory) ListActive(context.Context) ([]group.Target, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []group.Target
	for _, t := range d.targets {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Resolve(_ context.Context, ids []string) ([]group.Target, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []group.Target
	for _, id := range ids {
		for _, t := range d.targets {
			if t.ID == id && t.Active {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

type fakeTransport struct {
	mu      sync.Mutex
	failFor map[string]bool
	delay   time.Duration
	sent    []string
}

func (t *fakeTransport) Send(ctx context.Context, target group.Target, _ channel.Content) (channel.SendResponse, error) {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return channel.SendResponse{}, ctx.Err()
		}
	}
	if t.failFor[target.ID] {
		return channel.SendResponse{}, errors.New("gateway rejected message")
	}
	t.mu.Lock()
	t.sent = append(t.sent, target.ID)
	t.mu.Unlock()
	return channel.SendResponse{MessageID: "msg-" + target.ID}, nil
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type fakeSecondary struct {
	mu        sync.Mutex
	fail      bool
	published []program.SecondaryMode
}

func (s *fakeSecondary) Publish(_ context.Context, _ channel.Content, mode program.SecondaryMode) (channel.SendResponse, error) {
	if s.fail {
		return channel.SendResponse{}, errors.New("secondary channel down")
	}
	s.mu.Lock()
	s.published = append(s.published, mode)
	s.mu.Unlock()
	return channel.SendResponse{MessageID: "tiktok-1"}, nil
}

type fakeGenerative struct {
	text  string
	err   error
	delay time.Duration
}

func (g *fakeGenerative) Generate(ctx context.Context, _ catalog.Product, _ creative.Context) (string, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}
