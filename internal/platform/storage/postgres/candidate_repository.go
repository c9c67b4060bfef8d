package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/uvote/internal/domain"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

type candidateModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index"`
	UserID     string    `gorm:"column:user_id"`
	Name       string    `gorm:"column:name"`
	Position   string    `gorm:"column:position"`
	Bio        string    `gorm:"column:bio"`
	ImageURL   string    `gorm:"column:image_url"`
	Department string    `gorm:"column:department"`
	YearLevel  string    `gorm:"column:year_level"`
	StudentID  string    `gorm:"column:student_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func (m candidateModel) toDomain() domain.Candidate {
	return domain.Candidate{
		ID:         domain.CandidateID(m.ID),
		ElectionID: domain.ElectionID(m.ElectionID),
		UserID:     domain.UserID(m.UserID),
		Name:       m.Name,
		Position:   m.Position,
		Bio:        m.Bio,
		ImageURL:   m.ImageURL,
		Department: m.Department,
		YearLevel:  m.YearLevel,
		StudentID:  m.StudentID,
		CreatedAt:  m.CreatedAt,
	}
}

// BulkCreate grava os candidatos de uma eleição em uma única transação.
func (r *CandidateRepository) BulkCreate(ctx context.Context, electionID domain.ElectionID, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	models := make([]candidateModel, len(candidates))
	for i, c := range candidates {
		models[i] = candidateModel{
			ID:         string(c.ID),
			ElectionID: string(electionID),
			UserID:     string(c.UserID),
			Name:       c.Name,
			Position:   c.Position,
			Bio:        c.Bio,
			ImageURL:   c.ImageURL,
			Department: c.Department,
			YearLevel:  c.YearLevel,
			StudentID:  c.StudentID,
			CreatedAt:  c.CreatedAt,
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("gorm candidatos: inserir: %w", err)
		}
		return nil
	})
}

func (r *CandidateRepository) ListByElection(ctx context.Context, electionID domain.ElectionID) ([]domain.Candidate, error) {
	var models []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm candidatos: listar eleicao: %w", err)
	}

	result := make([]domain.Candidate, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

var _ domain.CandidateRepository = (*CandidateRepository)(nil)
