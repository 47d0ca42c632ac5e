// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the read-only skill catalog and the
// per-user HAVE/WANT assertions.
//
// Assertions are replace-on-set: setting a HAVE skill twice keeps one row
// with the latest level, setting a WANT skill twice is a no-op.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// ListSkills returns the catalog ordered by name.
func ListSkills(ctx context.Context, db *gorm.DB) ([]domain.Skill, error) {
	var out []domain.Skill
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// GetSkill fetches a catalog entry by ID, or ErrNotFound.
func GetSkill(ctx context.Context, db *gorm.DB, id uint64) (*domain.Skill, error) {
	var s domain.Skill
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertHave sets the user's level for a skill, replacing any previous level.
func UpsertHave(ctx context.Context, db *gorm.DB, userID, skillID uint64, level string) error {
	row := &domain.SkillHave{UserID: userID, SkillID: skillID, Level: level}
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"level"}),
		}).
		Create(row).Error
}

// DeleteHave removes a HAVE assertion. Returns ErrNotFound when none existed.
func DeleteHave(ctx context.Context, db *gorm.DB, userID, skillID uint64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Delete(&domain.SkillHave{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertWant records interest in a skill; repeated calls are no-ops.
func UpsertWant(ctx context.Context, db *gorm.DB, userID, skillID uint64) error {
	row := &domain.SkillWant{UserID: userID, SkillID: skillID}
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

// DeleteWant removes a WANT assertion. Returns ErrNotFound when none existed.
func DeleteWant(ctx context.Context, db *gorm.DB, userID, skillID uint64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Delete(&domain.SkillWant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHave returns the user's HAVE assertions with skills preloaded.
func ListHave(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.SkillHave, error) {
	var out []domain.SkillHave
	err := db.WithContext(ctx).
		Preload("Skill").
		Where("user_id = ?", userID).
		Order("skill_id ASC").
		Find(&out).Error
	return out, err
}

// ListWant returns the user's WANT assertions with skills preloaded.
func ListWant(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.SkillWant, error) {
	var out []domain.SkillWant
	err := db.WithContext(ctx).
		Preload("Skill").
		Where("user_id = ?", userID).
		Order("skill_id ASC").
		Find(&out).Error
	return out, err
}
