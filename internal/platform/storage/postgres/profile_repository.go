package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/uvote/internal/domain"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type profileModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name"`
	Department string    `gorm:"column:department"`
	YearLevel  string    `gorm:"column:year_level"`
	StudentID  string    `gorm:"column:student_id"`
	IsVerified bool      `gorm:"column:is_verified"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (profileModel) TableName() string {
	return "profiles"
}

func (m profileModel) toDomain() domain.VoterProfile {
	return domain.VoterProfile{
		ID:         domain.UserID(m.ID),
		Name:       m.Name,
		Department: m.Department,
		YearLevel:  m.YearLevel,
		StudentID:  m.StudentID,
		IsVerified: m.IsVerified,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id domain.UserID) (domain.VoterProfile, error) {
	var model profileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VoterProfile{}, domain.ErrNotFound
		}
		return domain.VoterProfile{}, fmt.Errorf("gorm perfis: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ProfileRepository) ListVerified(ctx context.Context) ([]domain.VoterProfile, error) {
	var models []profileModel
	if err := r.db.WithContext(ctx).
		Where("is_verified = ?", true).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm perfis: listar verificados: %w", err)
	}

	result := make([]domain.VoterProfile, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p domain.VoterProfile) error {
	model := profileModel{
		ID:         string(p.ID),
		Name:       p.Name,
		Department: p.Department,
		YearLevel:  p.YearLevel,
		StudentID:  p.StudentID,
		IsVerified: p.IsVerified,
		UpdatedAt:  p.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("gorm perfis: upsert: %w", err)
	}
	return nil
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
