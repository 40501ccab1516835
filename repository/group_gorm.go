package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainGroup "github.com/ofertazap/ofertazap/domains/group"
)

type targetModel struct {
	ID     string `gorm:"primaryKey;column:id"`
	Handle string `gorm:"column:handle;not null;uniqueIndex"`
	Name   string `gorm:"column:name"`
	Active bool   `gorm:"column:active;default:true;index"`
}

func (targetModel) TableName() string { return "targets" }

// GroupRepository is the group directory backing store. Dispatch resolves
// against it fresh on every run.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) (*GroupRepository, error) {
	if err := db.AutoMigrate(&targetModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate targets table: %w", err)
	}
	return &GroupRepository{db: db}, nil
}

func (r *GroupRepository) ListActive(ctx context.Context) ([]domainGroup.Target, error) {
	var models []targetModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainTargets(models), nil
}

func (r *GroupRepository) Resolve(ctx context.Context, ids []string) ([]domainGroup.Target, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []targetModel
	if err := r.db.WithContext(ctx).Where("id IN ? AND active = ?", ids, true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainTargets(models), nil
}

// UpsertTarget inserts or updates a curated delivery target.
func (r *GroupRepository) UpsertTarget(ctx context.Context, target domainGroup.Target) error {
	model := targetModel{
		ID:     target.ID,
		Handle: target.Handle,
		Name:   target.Name,
		Active: target.Active,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

func toDomainTargets(models []targetModel) []domainGroup.Target {
	targets := make([]domainGroup.Target, 0, len(models))
	for _, m := range models {
		targets = append(targets, domainGroup.Target{
			ID:     m.ID,
			Handle: m.Handle,
			Name:   m.Name,
			Active: m.Active,
		})
	}
	return targets
}
