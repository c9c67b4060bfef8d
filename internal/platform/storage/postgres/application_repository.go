package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/uvote/internal/domain"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

type applicationModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	ElectionID string     `gorm:"column:election_id;index"`
	UserID     string     `gorm:"column:user_id"`
	Name       string     `gorm:"column:name"`
	Position   string     `gorm:"column:position"`
	Platform   string     `gorm:"column:platform"`
	ImageURL   string     `gorm:"column:image_url"`
	Status     string     `gorm:"column:status"`
	ReviewedBy string     `gorm:"column:reviewed_by"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (applicationModel) TableName() string {
	return "candidate_applications"
}

func (m applicationModel) toDomain() domain.CandidateApplication {
	return domain.CandidateApplication{
		ID:         domain.ApplicationID(m.ID),
		ElectionID: domain.ElectionID(m.ElectionID),
		UserID:     domain.UserID(m.UserID),
		Name:       m.Name,
		Position:   m.Position,
		Platform:   m.Platform,
		ImageURL:   m.ImageURL,
		Status:     domain.ApplicationStatus(m.Status),
		ReviewedBy: domain.UserID(m.ReviewedBy),
		ReviewedAt: m.ReviewedAt,
		CreatedAt:  m.CreatedAt,
	}
}

func fromDomainApplication(a domain.CandidateApplication) applicationModel {
	return applicationModel{
		ID:         string(a.ID),
		ElectionID: string(a.ElectionID),
		UserID:     string(a.UserID),
		Name:       a.Name,
		Position:   a.Position,
		Platform:   a.Platform,
		ImageURL:   a.ImageURL,
		Status:     string(a.Status),
		ReviewedBy: string(a.ReviewedBy),
		ReviewedAt: a.ReviewedAt,
		CreatedAt:  a.CreatedAt,
	}
}

func (r *ApplicationRepository) Create(ctx context.Context, a domain.CandidateApplication) error {
	model := fromDomainApplication(a)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm candidaturas: inserir: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id domain.ApplicationID) (domain.CandidateApplication, error) {
	var model applicationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CandidateApplication{}, domain.ErrNotFound
		}
		return domain.CandidateApplication{}, fmt.Errorf("gorm candidaturas: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ApplicationRepository) ListByElection(ctx context.Context, electionID domain.ElectionID) ([]domain.CandidateApplication, error) {
	var models []applicationModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm candidaturas: listar eleicao: %w", err)
	}

	result := make([]domain.CandidateApplication, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

// Update grava somente o resultado da revisão; os dados enviados pelo candidato não mudam.
func (r *ApplicationRepository) Update(ctx context.Context, a domain.CandidateApplication) error {
	res := r.db.WithContext(ctx).Model(&applicationModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":      string(a.Status),
			"reviewed_by": string(a.ReviewedBy),
			"reviewed_at": a.ReviewedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm candidaturas: atualizar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ApplicationRepository = (*ApplicationRepository)(nil)
