package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/domains/program"
)

func threeGroups() []group.Target {
	return []group.Target{
		{ID: "g1", Handle: "111@g.us", Active: true},
		{ID: "g2", Handle: "222@g.us", Active: true},
		{ID: "g3", Handle: "333@g.us", Active: true},
	}
}

func TestDispatcher_PartialFailureNeverAbortsSiblings(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]bool{"g2": true}}
	d := NewDispatcher(&fakeDirectory{targets: threeGroups()}, transport, nil, time.Second)

	outcomes, err := d.Dispatch(context.Background(), program.Program{TargetMode: program.TargetAllActiveGroups}, channel.Content{Text: "oi"})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	ok := 0
	for _, o := range outcomes {
		assert.Equal(t, program.ChannelGroup, o.Kind)
		if o.OK {
			ok++
		} else {
			assert.NotEmpty(t, o.Error)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, transport.sentCount())
}

func TestDispatcher_ExplicitListDropsInactive(t *testing.T) {
	targets := threeGroups()
	targets[1].Active = false
	transport := &fakeTransport{}
	d := NewDispatcher(&fakeDirectory{targets: targets}, transport, nil, time.Second)

	p := program.Program{
		TargetMode: program.TargetExplicitGroups,
		GroupIDs:   []string{"g1", "g2", "unknown"},
	}
	outcomes, err := d.Dispatch(context.Background(), p, channel.Content{Text: "oi"})
	require.NoError(t, err)

	// g2 is inactive and "unknown" does not exist: both silently dropped
	require.Len(t, outcomes, 1)
	assert.Equal(t, "g1", outcomes[0].TargetID)
}

func TestDispatcher_SlowTargetDoesNotStallSiblings(t *testing.T) {
	transport := &fakeTransport{delay: 2 * time.Second}
	d := NewDispatcher(&fakeDirectory{targets: threeGroups()}, transport, nil, 50*time.Millisecond)

	start := time.Now()
	outcomes, err := d.Dispatch(context.Background(), program.Program{}, channel.Content{Text: "oi"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "per-target timeout must bound the join barrier")
	for _, o := range outcomes {
		assert.False(t, o.OK)
	}
}

func TestDispatcher_SecondaryIsIndependent(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]bool{"g1": true, "g2": true, "g3": true}}
	secondary := &fakeSecondary{}
	d := NewDispatcher(&fakeDirectory{targets: threeGroups()}, transport, secondary, time.Second)

	p := program.Program{
		Secondary: program.SecondaryOptions{Enabled: true, Mode: program.SecondaryDraft},
	}
	outcomes, err := d.Dispatch(context.Background(), p, channel.Content{Text: "oi"})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	last := outcomes[len(outcomes)-1]
	assert.Equal(t, program.ChannelSecondary, last.Kind)
	assert.True(t, last.OK, "all-groups failure must not affect the secondary outcome")
	assert.Equal(t, []program.SecondaryMode{program.SecondaryDraft}, secondary.published)
}

func TestDispatcher_SecondaryDisabled(t *testing.T) {
	secondary := &fakeSecondary{}
	d := NewDispatcher(&fakeDirectory{targets: threeGroups()}, &fakeTransport{}, secondary, time.Second)

	outcomes, err := d.Dispatch(context.Background(), program.Program{}, channel.Content{Text: "oi"})
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
	assert.Empty(t, secondary.published)
}
