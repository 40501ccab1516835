package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	pkgError "github.com/ofertazap/ofertazap/pkg/error"
)

// --- Persistence Models ---

type programModel struct {
	ID               string         `gorm:"primaryKey;column:id"`
	Name             string         `gorm:"column:name;not null"`
	Categories       sql.NullString `gorm:"column:categories"` // JSON
	IntervalMinutes  int            `gorm:"column:interval_minutes;not null"`
	StartTime        string         `gorm:"column:start_time;not null"`
	EndTime          string         `gorm:"column:end_time;not null"`
	AllowedWeekdays  sql.NullString `gorm:"column:allowed_weekdays"`   // JSON
	AllowedMonthDays sql.NullString `gorm:"column:allowed_month_days"` // JSON
	SelectionMode    string         `gorm:"column:selection_mode;not null"`
	TargetMode       string         `gorm:"column:target_mode;not null"`
	GroupIDs         sql.NullString `gorm:"column:group_ids"` // JSON
	ContentOptions   sql.NullString `gorm:"column:content_options"`
	SecondaryOptions sql.NullString `gorm:"column:secondary_options"`
	Active           bool           `gorm:"column:active;default:false;index"`
	NextSendAt       *time.Time     `gorm:"column:next_send_at;index"`
	LastSendAt       *time.Time     `gorm:"column:last_send_at"`
	TotalSent        int            `gorm:"column:total_sent;default:0"`
	TotalSentToday   int            `gorm:"column:total_sent_today;default:0"`
	SentTodayDate    sql.NullString `gorm:"column:sent_today_date"`
	CycleServed      sql.NullString `gorm:"column:cycle_served"` // JSON
	CreatedAt        time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;not null"`
}

func (programModel) TableName() string { return "programs" }

// ProgramRepository persists programs and their run bookkeeping.
type ProgramRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) (*ProgramRepository, error) {
	if err := db.AutoMigrate(&programModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate programs table: %w", err)
	}
	return &ProgramRepository{db: db}, nil
}

func (r *ProgramRepository) GetProgram(ctx context.Context, id string) (domainProgram.Program, error) {
	var model programModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainProgram.Program{}, pkgError.NotFoundError(fmt.Sprintf("program %s not found", id))
	}
	if err != nil {
		return domainProgram.Program{}, err
	}
	return toDomainProgram(model)
}

func (r *ProgramRepository) ListPrograms(ctx context.Context) ([]domainProgram.Program, error) {
	var models []programModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPrograms(models)
}

func (r *ProgramRepository) ListActivePrograms(ctx context.Context) ([]domainProgram.Program, error) {
	var models []programModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPrograms(models)
}

// SaveRunState writes back only run bookkeeping; configuration columns are
// owned by the CRUD layer and never touched here.
func (r *ProgramRepository) SaveRunState(ctx context.Context, p domainProgram.Program) error {
	updates := map[string]any{
		"next_send_at":     p.NextSendAt,
		"last_send_at":     p.LastSendAt,
		"total_sent":       p.TotalSent,
		"total_sent_today": p.TotalSentToday,
		"sent_today_date":  sql.NullString{String: p.SentTodayDate, Valid: p.SentTodayDate != ""},
		"cycle_served":     marshalNullable(p.CycleServed),
		"updated_at":       time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).Model(&programModel{}).Where("id = ?", p.ID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("program %s not found", p.ID))
	}
	return nil
}

func (r *ProgramRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&programModel{}).Where("id = ?", id).Updates(map[string]any{
		"active":     active,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("program %s not found", id))
	}
	return nil
}

// CreateProgram exists for seeding and tests; the dashboard CRUD owns the
// full lifecycle in production.
func (r *ProgramRepository) CreateProgram(ctx context.Context, p domainProgram.Program) error {
	model, err := toProgramModel(p)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now
	return r.db.WithContext(ctx).Create(&model).Error
}

// --- Mapping ---

func toProgramModel(p domainProgram.Program) (programModel, error) {
	content, err := json.Marshal(p.Content)
	if err != nil {
		return programModel{}, err
	}
	secondary, err := json.Marshal(p.Secondary)
	if err != nil {
		return programModel{}, err
	}

	return programModel{
		ID:               p.ID,
		Name:             p.Name,
		Categories:       marshalNullable(p.Categories),
		IntervalMinutes:  p.IntervalMinutes,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		AllowedWeekdays:  marshalNullable(p.AllowedWeekdays),
		AllowedMonthDays: marshalNullable(p.AllowedMonthDays),
		SelectionMode:    string(p.SelectionMode),
		TargetMode:       string(p.TargetMode),
		GroupIDs:         marshalNullable(p.GroupIDs),
		ContentOptions:   sql.NullString{String: string(content), Valid: true},
		SecondaryOptions: sql.NullString{String: string(secondary), Valid: true},
		Active:           p.Active,
		NextSendAt:       p.NextSendAt,
		LastSendAt:       p.LastSendAt,
		TotalSent:        p.TotalSent,
		TotalSentToday:   p.TotalSentToday,
		SentTodayDate:    sql.NullString{String: p.SentTodayDate, Valid: p.SentTodayDate != ""},
		CycleServed:      marshalNullable(p.CycleServed),
	}, nil
}

func toDomainProgram(m programModel) (domainProgram.Program, error) {
	p := domainProgram.Program{
		ID:              m.ID,
		Name:            m.Name,
		IntervalMinutes: m.IntervalMinutes,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		SelectionMode:   domainProgram.SelectionMode(m.SelectionMode),
		TargetMode:      domainProgram.TargetMode(m.TargetMode),
		Active:          m.Active,
		NextSendAt:      m.NextSendAt,
		LastSendAt:      m.LastSendAt,
		TotalSent:       m.TotalSent,
		TotalSentToday:  m.TotalSentToday,
		SentTodayDate:   m.SentTodayDate.String,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	if err := unmarshalNullable(m.Categories, &p.Categories); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.AllowedWeekdays, &p.AllowedWeekdays); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.AllowedMonthDays, &p.AllowedMonthDays); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.GroupIDs, &p.GroupIDs); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.CycleServed, &p.CycleServed); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.ContentOptions, &p.Content); err != nil {
		return p, err
	}
	if err := unmarshalNullable(m.SecondaryOptions, &p.Secondary); err != nil {
		return p, err
	}
	return p, nil
}

func toDomainPrograms(models []programModel) ([]domainProgram.Program, error) {
	out := make([]domainProgram.Program, 0, len(models))
	for _, m := range models {
		p, err := toDomainProgram(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func marshalNullable[T any](v []T) sql.NullString {
	if len(v) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func unmarshalNullable(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}
