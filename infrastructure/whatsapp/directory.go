package whatsapp

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"

	"github.com/ofertazap/ofertazap/domains/group"
)

// Directory exposes the account's joined groups as delivery targets. It is
// queried fresh at dispatch time so membership changes take effect on the
// next run without a restart.
type Directory struct {
	client *whatsmeow.Client
}

func NewDirectory(client *whatsmeow.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) ListActive(ctx context.Context) ([]group.Target, error) {
	if d.client == nil {
		return nil, fmt.Errorf("no client")
	}
	groups, err := d.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]group.Target, 0, len(groups))
	for _, g := range groups {
		// Announce-only groups accept posts from admins only; membership
		// alone is not enough, so they are left out of the broadcast set.
		if g.IsAnnounce && !d.canPostToAnnounce(g.Participants) {
			continue
		}
		targets = append(targets, group.Target{
			ID:     g.JID.String(),
			Handle: g.JID.String(),
			Name:   g.GroupName.Name,
			Active: true,
		})
	}
	return targets, nil
}

func (d *Directory) Resolve(ctx context.Context, ids []string) ([]group.Target, error) {
	all, err := d.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]group.Target, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	targets := make([]group.Target, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func (d *Directory) canPostToAnnounce(participants []types.GroupParticipant) bool {
	if d.client.Store.ID == nil {
		return false
	}
	me := d.client.Store.ID.ToNonAD()
	for _, p := range participants {
		if p.JID.ToNonAD() == me {
			return p.IsAdmin || p.IsSuperAdmin
		}
	}
	return false
}
