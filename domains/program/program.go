package program

import (
	"context"
	"time"
)

type SelectionMode string

const (
	SelectionRotating    SelectionMode = "rotating"
	SelectionRandom      SelectionMode = "random"
	SelectionLowestPrice SelectionMode = "lowest_price"
	SelectionMostRecent  SelectionMode = "most_recent"
)

type TargetMode string

const (
	TargetAllActiveGroups TargetMode = "all_active_groups"
	TargetExplicitGroups  TargetMode = "explicit_group_list"
)

type SecondaryMode string

const (
	SecondaryDraft  SecondaryMode = "draft"
	SecondaryDirect SecondaryMode = "direct"
)

// ContentOptions controls how the outbound promo text is assembled.
type ContentOptions struct {
	Prefix        string `json:"prefix"`
	Suffix        string `json:"suffix"`
	IncludeImage  bool   `json:"include_image"`
	IncludePrice  bool   `json:"include_price"`
	IncludeLink   bool   `json:"include_link"`
	UseAICreative bool   `json:"use_ai_creative"`
}

type SecondaryOptions struct {
	Enabled bool          `json:"enabled"`
	Mode    SecondaryMode `json:"mode"`
}

// Program is a recurring send schedule ("Programação").
type Program struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Categories       []string         `json:"categories"`
	IntervalMinutes  int              `json:"interval_minutes"` // bounded 5-120
	StartTime        string           `json:"start_time"`       // HH:MM, local timezone
	EndTime          string           `json:"end_time"`         // HH:MM, strictly after StartTime
	AllowedWeekdays  []int            `json:"allowed_weekdays"` // 0=Sunday .. 6=Saturday
	AllowedMonthDays []int            `json:"allowed_month_days,omitempty"`
	SelectionMode    SelectionMode    `json:"selection_mode"`
	TargetMode       TargetMode       `json:"target_mode"`
	GroupIDs         []string         `json:"group_ids,omitempty"` // only for explicit_group_list
	Content          ContentOptions   `json:"content"`
	Secondary        SecondaryOptions `json:"secondary"`
	Active           bool             `json:"active"`
	NextSendAt       *time.Time       `json:"next_send_at,omitempty"`
	LastSendAt       *time.Time       `json:"last_send_at,omitempty"`
	TotalSent        int              `json:"total_sent"`
	TotalSentToday   int              `json:"total_sent_today"`
	SentTodayDate    string           `json:"sent_today_date,omitempty"` // YYYY-MM-DD the today counter belongs to
	CycleServed      []string         `json:"cycle_served,omitempty"`    // product ids already served in the current rotation cycle
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// InCycle reports whether a product id was already served this rotation cycle.
func (p *Program) InCycle(productID string) bool {
	for _, id := range p.CycleServed {
		if id == productID {
			return true
		}
	}
	return false
}

type ChannelKind string

const (
	ChannelGroup     ChannelKind = "whatsapp_group"
	ChannelSecondary ChannelKind = "secondary"
)

// ChannelResult is the outcome of one delivery attempt on one channel.
type ChannelResult struct {
	Kind         ChannelKind `json:"kind"`
	TargetID     string      `json:"target_id"`
	TargetHandle string      `json:"target_handle,omitempty"`
	OK           bool        `json:"ok"`
	MessageID    string      `json:"message_id,omitempty"`
	Error        string      `json:"error,omitempty"`
}

type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipNotDue           SkipReason = "not-due"
	SkipNoProducts       SkipReason = "no-products"
	SkipLocked           SkipReason = "locked"
	SkipInactive         SkipReason = "inactive"
	SkipNoEligibleWindow SkipReason = "no-eligible-window"
)

type RunStatus string

const (
	RunSkipped       RunStatus = "skipped"
	RunFullySent     RunStatus = "fully-sent"
	RunPartiallySent RunStatus = "partially-sent"
	RunFullyFailed   RunStatus = "fully-failed"
)

// RunResult is the ephemeral outcome of one run attempt. It is surfaced to
// the caller and folded into program stats, never stored as-is.
type RunResult struct {
	RunID             string          `json:"run_id"`
	ProgramID         string          `json:"program_id"`
	TriggeredAt       time.Time       `json:"triggered_at"`
	SelectedProductID string          `json:"selected_product_id,omitempty"`
	Outcomes          []ChannelResult `json:"outcomes,omitempty"`
	Attempted         int             `json:"attempted"`
	SentCount         int             `json:"sent_count"`
	SkipReason        SkipReason      `json:"skip_reason,omitempty"`
	NextSendAt        *time.Time      `json:"next_send_at,omitempty"`
}

// Status maps the result onto the notification level the dashboard shows.
// Group coverage drives the level; a run that reached no group but delivered
// through the secondary channel is still a partial delivery, not a failure.
func (r RunResult) Status() RunStatus {
	if r.SkipReason != SkipNone {
		return RunSkipped
	}
	switch {
	case r.Attempted > 0 && r.SentCount == r.groupAttempts():
		return RunFullySent
	case r.SentCount > 0 || r.anyDelivered():
		return RunPartiallySent
	default:
		return RunFullyFailed
	}
}

func (r RunResult) anyDelivered() bool {
	for _, o := range r.Outcomes {
		if o.OK {
			return true
		}
	}
	return false
}

func (r RunResult) groupAttempts() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == ChannelGroup {
			n++
		}
	}
	return n
}

// IProgramRepository is the contract against the external program-and-stats
// store. The engine only reads configuration and writes back run bookkeeping.
type IProgramRepository interface {
	GetProgram(ctx context.Context, id string) (Program, error)
	ListPrograms(ctx context.Context) ([]Program, error)
	ListActivePrograms(ctx context.Context) ([]Program, error)
	// SaveRunState persists stats, rotation cycle state, last_send_at and
	// next_send_at after a run. Configuration fields are never touched.
	SaveRunState(ctx context.Context, p Program) error
	SetActive(ctx context.Context, id string, active bool) error
}

type IProgramUsecase interface {
	RunNow(ctx context.Context, request RunNowRequest) (RunResult, error)
	Tick(ctx context.Context, now time.Time) ([]RunResult, error)
	List(ctx context.Context) ([]Program, error)
	Get(ctx context.Context, id string) (Program, error)
	SetActive(ctx context.Context, request SetActiveRequest) (Program, error)
}

type RunNowRequest struct {
	ProgramID string `json:"program_id" uri:"program_id"`
}

type SetActiveRequest struct {
	ProgramID string `json:"program_id" uri:"program_id"`
	Active    bool   `json:"active"`
}
