package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/engine"
	"github.com/ofertazap/ofertazap/validations"
)

type serviceProgram struct {
	repo        domainProgram.IProgramRepository
	coordinator *engine.Coordinator
	location    *time.Location
}

func NewProgramService(repo domainProgram.IProgramRepository, coordinator *engine.Coordinator, location *time.Location) domainProgram.IProgramUsecase {
	if location == nil {
		location = time.Local
	}
	return &serviceProgram{
		repo:        repo,
		coordinator: coordinator,
		location:    location,
	}
}

// RunNow is the synchronous manual trigger behind the dashboard's "run now"
// button. It races the periodic tick through the same per-program lock.
func (service serviceProgram) RunNow(ctx context.Context, request domainProgram.RunNowRequest) (domainProgram.RunResult, error) {
	if err := validations.ValidateRunNow(ctx, request); err != nil {
		return domainProgram.RunResult{}, err
	}

	p, err := service.repo.GetProgram(ctx, request.ProgramID)
	if err != nil {
		return domainProgram.RunResult{}, err
	}

	return service.coordinator.RunProgram(ctx, p, time.Now().In(service.location))
}

// Tick runs one scheduler evaluation pass across all active programs.
// Programs are independent, so they run fully in parallel.
func (service serviceProgram) Tick(ctx context.Context, now time.Time) ([]domainProgram.RunResult, error) {
	programs, err := service.repo.ListActivePrograms(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domainProgram.RunResult, len(programs))
	var wg sync.WaitGroup
	for i, p := range programs {
		wg.Add(1)
		go func(i int, p domainProgram.Program) {
			defer wg.Done()
			result, err := service.coordinator.RunProgram(ctx, p, now)
			if err != nil {
				logrus.WithError(err).Errorf("[TICKER] Run failed for program %s", p.ID)
			}
			results[i] = result
		}(i, p)
	}
	wg.Wait()

	return results, nil
}

func (service serviceProgram) List(ctx context.Context) ([]domainProgram.Program, error) {
	programs, err := service.repo.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		service.normalizeTodayCounter(&programs[i])
	}
	return programs, nil
}

func (service serviceProgram) Get(ctx context.Context, id string) (domainProgram.Program, error) {
	p, err := service.repo.GetProgram(ctx, id)
	if err != nil {
		return domainProgram.Program{}, err
	}
	service.normalizeTodayCounter(&p)
	return p, nil
}

// normalizeTodayCounter hides yesterday's counter between local midnight and
// the day's first finalized run; the stored column rolls over lazily.
func (service serviceProgram) normalizeTodayCounter(p *domainProgram.Program) {
	today := time.Now().In(service.location).Format("2006-01-02")
	if p.SentTodayDate != "" && p.SentTodayDate != today {
		p.TotalSentToday = 0
	}
}

// SetActive pauses or resumes a program. Resuming re-validates the schedule
// configuration and recomputes next_send_at so the active invariant holds.
func (service serviceProgram) SetActive(ctx context.Context, request domainProgram.SetActiveRequest) (domainProgram.Program, error) {
	if err := validations.ValidateSetActive(ctx, request); err != nil {
		return domainProgram.Program{}, err
	}

	p, err := service.repo.GetProgram(ctx, request.ProgramID)
	if err != nil {
		return domainProgram.Program{}, err
	}

	if request.Active {
		if err := validations.ValidateProgramConfig(ctx, p); err != nil {
			return domainProgram.Program{}, err
		}

		now := time.Now().In(service.location)
		next, err := service.coordinator.Window(p).NextEligible(now)
		if err != nil {
			return domainProgram.Program{}, err
		}
		p.NextSendAt = &next
		if err := service.repo.SaveRunState(ctx, p); err != nil {
			return domainProgram.Program{}, err
		}
	}

	if err := service.repo.SetActive(ctx, p.ID, request.Active); err != nil {
		return domainProgram.Program{}, err
	}
	p.Active = request.Active

	logrus.Infof("[PROGRAM] Program %s active=%t", p.ID, request.Active)
	return p, nil
}
