package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/pkg/runlock"
	"github.com/ofertazap/ofertazap/pkg/timeutils"
)

// Coordinator orchestrates one run of one program:
//
//	Idle → Checking → {Skipped | Selecting} → {Skipped | Composing} →
//	Dispatching → Finalizing → Idle
//
// A per-program lock is held for the full Checking → Finalizing span; any
// trigger arriving while it is held is dropped, not queued.
type Coordinator struct {
	repo       program.IProgramRepository
	catalog    catalog.ICatalogQuery
	selector   *Selector
	composer   *Composer
	dispatcher *Dispatcher
	locks      *runlock.Keyed
	location   *time.Location

	// OnResult is invoked after every finished run (skips included), e.g.
	// for the websocket run feed. Must not block.
	OnResult func(program.RunResult)
}

func NewCoordinator(
	repo program.IProgramRepository,
	catalogQuery catalog.ICatalogQuery,
	selector *Selector,
	composer *Composer,
	dispatcher *Dispatcher,
	location *time.Location,
) *Coordinator {
	if location == nil {
		location = time.Local
	}
	return &Coordinator{
		repo:       repo,
		catalog:    catalogQuery,
		selector:   selector,
		composer:   composer,
		dispatcher: dispatcher,
		locks:      runlock.New(),
		location:   location,
	}
}

// Window builds the time-window evaluator input for a program.
func (c *Coordinator) Window(p program.Program) timeutils.Window {
	return timeutils.Window{
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Weekdays:        p.AllowedWeekdays,
		MonthDays:       p.AllowedMonthDays,
		IntervalMinutes: p.IntervalMinutes,
		LastSendAt:      p.LastSendAt,
		Location:        c.location,
	}
}

// RunProgram executes one run attempt. The returned error is reserved for
// infrastructure failures (store/catalog unreachable) and the fatal
// no-eligible-window configuration defect; everything else is reported
// through the RunResult.
func (c *Coordinator) RunProgram(ctx context.Context, p program.Program, now time.Time) (program.RunResult, error) {
	result := program.RunResult{
		RunID:       uuid.NewString(),
		ProgramID:   p.ID,
		TriggeredAt: now,
	}

	if !p.Active {
		result.SkipReason = program.SkipInactive
		c.emit(result)
		return result, nil
	}

	if !c.locks.TryAcquire(p.ID) {
		// concurrent tick/run-now race: drop, never queue
		logrus.Debugf("[COORDINATOR] Program %s already running, trigger dropped", p.ID)
		result.SkipReason = program.SkipLocked
		c.emit(result)
		return result, nil
	}
	defer c.locks.Release(p.ID)

	// Checking
	window := c.Window(p)
	due := p.NextSendAt == nil || !now.Before(*p.NextSendAt)
	if !due || !window.IsEligible(now) {
		result.SkipReason = program.SkipNotDue
		result.NextSendAt = p.NextSendAt
		c.emit(result)
		return result, nil
	}

	// Selecting
	candidates, err := c.catalog.FindByCategories(ctx, p.Categories)
	if err != nil {
		return result, err
	}
	product, err := c.selector.SelectNext(&p, candidates)
	if errors.Is(err, ErrNoMatchingProducts) {
		// the schedule must not stall on an empty category: advance
		// next_send_at, but last_send_at stays untouched
		logrus.Infof("[COORDINATOR] Program %s has no matching products, rescheduling", p.ID)
		result.SkipReason = program.SkipNoProducts
		return c.finalize(ctx, p, now, result)
	}
	if err != nil {
		return result, err
	}
	result.SelectedProductID = product.ID

	// Composing
	content := c.composer.Compose(ctx, product, p)

	// Dispatching
	outcomes, err := c.dispatcher.Dispatch(ctx, p, content)
	if err != nil {
		// e.g. group directory unreachable: treat as a wholly-failed run,
		// it waits for its normal next slot instead of retrying
		logrus.WithError(err).Errorf("[COORDINATOR] Dispatch failed for program %s", p.ID)
	}
	result.Outcomes = outcomes
	for _, o := range outcomes {
		if o.Kind == program.ChannelGroup {
			result.Attempted++
			if o.OK {
				result.SentCount++
			}
		}
	}

	return c.finalize(ctx, p, now, result)
}

// finalize folds the run into program stats and schedules the next slot.
// A wholly-failed run does not retry immediately; it waits for the next slot
// so a perpetually-failing program cannot monopolize the scheduler.
func (c *Coordinator) finalize(ctx context.Context, p program.Program, now time.Time, result program.RunResult) (program.RunResult, error) {
	// the today counter belongs to a local calendar day, so it rolls over on
	// every finalized run, sends or not
	localDay := now.In(c.location).Format("2006-01-02")
	if p.SentTodayDate != localDay {
		p.TotalSentToday = 0
		p.SentTodayDate = localDay
	}
	if result.SentCount > 0 {
		p.TotalSent += result.SentCount
		p.TotalSentToday += result.SentCount
		sentAt := now
		p.LastSendAt = &sentAt
	}

	next, err := c.Window(p).NextEligible(now)
	if errors.Is(err, timeutils.ErrNoEligibleWindow) {
		// configuration defect: deactivate so later ticks cannot re-enter the
		// window and re-dispatch; whatever this run already sent still counts.
		// Resuming the program recomputes the schedule after the fix.
		logrus.Errorf("[COORDINATOR] Program %s has no eligible window in the next %d days, deactivating", p.ID, timeutils.HorizonDays)
		result.SkipReason = program.SkipNoEligibleWindow
		p.NextSendAt = nil
		if saveErr := c.repo.SaveRunState(ctx, p); saveErr != nil {
			logrus.WithError(saveErr).Errorf("[COORDINATOR] Failed to persist stats for stalled program %s", p.ID)
		}
		if deactivateErr := c.repo.SetActive(ctx, p.ID, false); deactivateErr != nil {
			logrus.WithError(deactivateErr).Errorf("[COORDINATOR] Failed to deactivate stalled program %s", p.ID)
		}
		c.emit(result)
		return result, err
	}
	if err != nil {
		return result, err
	}

	p.NextSendAt = &next
	result.NextSendAt = &next
	if err := c.repo.SaveRunState(ctx, p); err != nil {
		return result, err
	}

	logrus.Infof("[COORDINATOR] Program %s finalized: status=%s sent=%d/%d next=%s",
		p.ID, result.Status(), result.SentCount, result.Attempted, next.Format(time.RFC3339))
	c.emit(result)
	return result, nil
}

func (c *Coordinator) emit(result program.RunResult) {
	if c.OnResult != nil {
		c.OnResult(result)
	}
}
