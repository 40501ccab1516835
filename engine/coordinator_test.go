package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/pkg/timeutils"
)

var monday10 = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func activeProgram(now time.Time) program.Program {
	next := now
	return program.Program{
		ID:              "prog-1",
		Name:            "Ofertas Eletrônicos",
		Categories:      []string{"eletronicos"},
		IntervalMinutes: 15,
		StartTime:       "08:00",
		EndTime:         "22:00",
		AllowedWeekdays: []int{0, 1, 2, 3, 4, 5, 6},
		SelectionMode:   program.SelectionRotating,
		TargetMode:      program.TargetAllActiveGroups,
		Active:          true,
		NextSendAt:      &next,
	}
}

func newTestCoordinator(repo *fakeRepo, cat *fakeCatalog, transport *fakeTransport, secondary *fakeSecondary) *Coordinator {
	var pub channel.ISecondaryPublisher
	if secondary != nil {
		pub = secondary
	}
	dispatcher := NewDispatcher(&fakeDirectory{targets: threeGroups()}, transport, pub, time.Second)
	return NewCoordinator(repo, cat, NewSelector(), NewComposer(nil, time.Second), dispatcher, time.UTC)
}

func TestCoordinator_InactiveProgramNeverDispatches(t *testing.T) {
	p := activeProgram(monday10)
	p.Active = false
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.SkipInactive, result.SkipReason)
	assert.Zero(t, transport.sentCount())
	assert.Zero(t, repo.savedCount())
}

func TestCoordinator_NotDueSkipLeavesScheduleAlone(t *testing.T) {
	p := activeProgram(monday10)
	future := monday10.Add(30 * time.Minute)
	p.NextSendAt = &future
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.SkipNotDue, result.SkipReason)
	assert.Equal(t, &future, result.NextSendAt, "next_send_at was already correctly in the future")
	assert.Zero(t, transport.sentCount())
	assert.Zero(t, repo.savedCount(), "a not-due skip must not touch the store")
}

func TestCoordinator_OutsideWindowSkips(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	night := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
	p.NextSendAt = &night
	result, err := c.RunProgram(context.Background(), p, night)
	require.NoError(t, err)

	assert.Equal(t, program.SkipNotDue, result.SkipReason)
	assert.Zero(t, transport.sentCount())
}

func TestCoordinator_SuccessfulRunUpdatesStatsAndSchedule(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.RunFullySent, result.Status())
	assert.Equal(t, 3, result.SentCount)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, "prod-a", result.SelectedProductID)

	saved := repo.lastSaved()
	assert.Equal(t, 3, saved.TotalSent)
	assert.Equal(t, 3, saved.TotalSentToday)
	require.NotNil(t, saved.LastSendAt)
	assert.Equal(t, monday10, *saved.LastSendAt)
	require.NotNil(t, saved.NextSendAt)
	assert.Equal(t, monday10.Add(15*time.Minute), *saved.NextSendAt)
	assert.Equal(t, []string{"prod-a"}, saved.CycleServed)
}

func TestCoordinator_TodayCounterResetsAtLocalMidnight(t *testing.T) {
	p := activeProgram(monday10)
	p.TotalSent = 40
	p.TotalSentToday = 7
	p.SentTodayDate = "2025-06-01" // yesterday
	repo := newFakeRepo(p)
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, &fakeTransport{}, nil)

	_, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	saved := repo.lastSaved()
	assert.Equal(t, 43, saved.TotalSent)
	assert.Equal(t, 3, saved.TotalSentToday, "today counter restarts on a new local day")
	assert.Equal(t, "2025-06-02", saved.SentTodayDate)
}

func TestCoordinator_NoProductsAdvancesScheduleWithoutLastSend(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.SkipNoProducts, result.SkipReason)
	assert.Zero(t, transport.sentCount())

	saved := repo.lastSaved()
	assert.Nil(t, saved.LastSendAt)
	require.NotNil(t, saved.NextSendAt)
	assert.True(t, saved.NextSendAt.After(monday10), "an empty category must not stall the schedule")
	assert.Zero(t, saved.TotalSent)
}

func TestCoordinator_WhollyFailedRunWaitsForNextSlot(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{failFor: map[string]bool{"g1": true, "g2": true, "g3": true}}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.RunFullyFailed, result.Status())
	assert.Equal(t, 0, result.SentCount)
	assert.Equal(t, 3, result.Attempted)

	saved := repo.lastSaved()
	assert.Nil(t, saved.LastSendAt, "a wholly-failed run is not a send")
	require.NotNil(t, saved.NextSendAt)
	assert.True(t, saved.NextSendAt.After(monday10), "no immediate retry, wait for the normal next slot")
}

func TestCoordinator_PartialFailureStillFinalizes(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{failFor: map[string]bool{"g2": true}}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.RunPartiallySent, result.Status())
	assert.Equal(t, 2, result.SentCount)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, repo.lastSaved().TotalSent)
}

func TestCoordinator_NoEligibleWindowSurfacedAsStalled(t *testing.T) {
	// only the 31st allowed: a run late on Jan 31 pushes the next slot past
	// the search horizon (no 31st exists before March)
	jan31 := time.Date(2025, 1, 31, 21, 50, 0, 0, time.UTC)
	p := activeProgram(jan31)
	p.AllowedWeekdays = nil
	p.AllowedMonthDays = []int{31}
	repo := newFakeRepo(p)
	transport := &fakeTransport{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	result, err := c.RunProgram(context.Background(), p, jan31)
	assert.ErrorIs(t, err, timeutils.ErrNoEligibleWindow)
	assert.Equal(t, program.SkipNoEligibleWindow, result.SkipReason)
	assert.Equal(t, 3, result.SentCount, "the run itself completed before the defect surfaced")

	saved := repo.lastSaved()
	assert.Nil(t, saved.NextSendAt, "a stalled program has no next slot")
	assert.Equal(t, 3, saved.TotalSent, "sends before the defect surfaced still count")

	stalled, err := repo.GetProgram(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stalled.Active, "horizon exhaustion deactivates the program")

	// a tick inside the still-open window must not fan out again
	result, err = c.RunProgram(context.Background(), stalled, jan31.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, program.SkipInactive, result.SkipReason)
	assert.Equal(t, 3, transport.sentCount(), "no re-dispatch after the stall")
}

func TestCoordinator_ZeroSendRunStillRollsTodayCounter(t *testing.T) {
	p := activeProgram(monday10)
	p.TotalSent = 40
	p.TotalSentToday = 7
	p.SentTodayDate = "2025-06-01" // yesterday
	repo := newFakeRepo(p)
	transport := &fakeTransport{failFor: map[string]bool{"g1": true, "g2": true, "g3": true}}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	_, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	saved := repo.lastSaved()
	assert.Equal(t, 0, saved.TotalSentToday, "yesterday's count does not survive into the new day")
	assert.Equal(t, "2025-06-02", saved.SentTodayDate)
	assert.Equal(t, 40, saved.TotalSent)
}

func TestCoordinator_LockedSkipReachesRunFeed(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, &fakeTransport{}, nil)

	var emitted []program.RunResult
	c.OnResult = func(r program.RunResult) { emitted = append(emitted, r) }

	require.True(t, c.locks.TryAcquire(p.ID))
	defer c.locks.Release(p.ID)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, program.SkipLocked, result.SkipReason)
	require.Len(t, emitted, 1, "dropped triggers are still reported")
	assert.Equal(t, program.SkipLocked, emitted[0].SkipReason)
}

func TestCoordinator_ConcurrentTriggersNeverDoubleRun(t *testing.T) {
	p := activeProgram(monday10)
	repo := newFakeRepo(p)
	transport := &fakeTransport{delay: 50 * time.Millisecond}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, transport, nil)

	var wg sync.WaitGroup
	results := make([]program.RunResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.RunProgram(context.Background(), p, monday10)
		}(i)
	}
	wg.Wait()

	locked, ran := 0, 0
	for _, r := range results {
		switch r.SkipReason {
		case program.SkipLocked:
			locked++
		default:
			ran++
		}
	}
	assert.Equal(t, 1, locked, "the losing trigger is dropped, not queued")
	assert.Equal(t, 1, ran)
	assert.Equal(t, 3, transport.sentCount(), "exactly one dispatch fan-out")
}

func TestCoordinator_SecondaryOutcomeDoesNotCountAsGroupSend(t *testing.T) {
	p := activeProgram(monday10)
	p.Secondary = program.SecondaryOptions{Enabled: true, Mode: program.SecondaryDirect}
	repo := newFakeRepo(p)
	secondary := &fakeSecondary{}
	c := newTestCoordinator(repo, &fakeCatalog{products: products3()}, &fakeTransport{}, secondary)

	result, err := c.RunProgram(context.Background(), p, monday10)
	require.NoError(t, err)

	assert.Equal(t, 3, result.SentCount)
	assert.Equal(t, 3, result.Attempted)
	assert.Len(t, result.Outcomes, 4)
	assert.Equal(t, []program.SecondaryMode{program.SecondaryDirect}, secondary.published)
}
