package validations

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	pkgError "github.com/ofertazap/ofertazap/pkg/error"
	"github.com/ofertazap/ofertazap/pkg/timeutils"
)

func ValidateRunNow(ctx context.Context, request domainProgram.RunNowRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ProgramID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSetActive(ctx context.Context, request domainProgram.SetActiveRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ProgramID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateProgramConfig is the ConfigError boundary: a program that fails it
// must never reach the run coordinator. The CRUD layer calls this on every
// create/edit; the engine re-checks it when a program is re-activated.
func ValidateProgramConfig(ctx context.Context, p domainProgram.Program) error {
	err := validation.ValidateStructWithContext(ctx, &p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.IntervalMinutes, validation.Required, validation.Min(5), validation.Max(120)),
		validation.Field(&p.StartTime, validation.Required, validation.By(validClock)),
		validation.Field(&p.EndTime, validation.Required, validation.By(validClock)),
		validation.Field(&p.AllowedWeekdays, validation.Each(validation.Min(0), validation.Max(6))),
		validation.Field(&p.AllowedMonthDays, validation.Each(validation.Min(1), validation.Max(31))),
		validation.Field(&p.SelectionMode, validation.Required, validation.In(
			domainProgram.SelectionRotating,
			domainProgram.SelectionRandom,
			domainProgram.SelectionLowestPrice,
			domainProgram.SelectionMostRecent,
		)),
		validation.Field(&p.TargetMode, validation.Required, validation.In(
			domainProgram.TargetAllActiveGroups,
			domainProgram.TargetExplicitGroups,
		)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	// overnight windows are not supported: end must be strictly after start
	sh, sm, _ := timeutils.ParseClock(p.StartTime)
	eh, em, _ := timeutils.ParseClock(p.EndTime)
	if eh*60+em <= sh*60+sm {
		return pkgError.ValidationError("end_time must be strictly after start_time (overnight windows are not supported)")
	}

	if len(p.AllowedWeekdays) == 0 && len(p.AllowedMonthDays) == 0 {
		return pkgError.ValidationError("at least one allowed weekday or day of month is required")
	}

	if p.TargetMode == domainProgram.TargetExplicitGroups && len(p.GroupIDs) == 0 {
		return pkgError.ValidationError("explicit_group_list requires at least one group id")
	}

	if p.Secondary.Enabled && p.Secondary.Mode != domainProgram.SecondaryDraft && p.Secondary.Mode != domainProgram.SecondaryDirect {
		return pkgError.ValidationError("secondary mode must be draft or direct")
	}

	return nil
}

func validClock(value any) error {
	s, _ := value.(string)
	if _, _, err := timeutils.ParseClock(s); err != nil {
		return fmt.Errorf("must be a valid HH:MM clock time")
	}
	return nil
}
