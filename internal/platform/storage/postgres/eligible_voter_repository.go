package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/uvote/internal/domain"
)

// EligibleVoterRepository mantém a lista explícita usada quando a eleição restringe o voto.
type EligibleVoterRepository struct {
	db *gorm.DB
}

func NewEligibleVoterRepository(db *gorm.DB) *EligibleVoterRepository {
	return &EligibleVoterRepository{db: db}
}

type eligibleVoterModel struct {
	ElectionID string    `gorm:"column:election_id;primaryKey"`
	UserID     string    `gorm:"column:user_id;primaryKey"`
	AddedBy    string    `gorm:"column:added_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (eligibleVoterModel) TableName() string {
	return "eligible_voters"
}

func (r *EligibleVoterRepository) IsListed(ctx context.Context, electionID domain.ElectionID, userID domain.UserID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&eligibleVoterModel{}).
		Where("election_id = ? AND user_id = ?", electionID, userID).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm elegiveis: consultar: %w", err)
	}
	return total > 0, nil
}

func (r *EligibleVoterRepository) ListByElection(ctx context.Context, electionID domain.ElectionID) ([]domain.EligibleVoter, error) {
	var models []eligibleVoterModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("user_id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm elegiveis: listar eleicao: %w", err)
	}

	result := make([]domain.EligibleVoter, len(models))
	for i, m := range models {
		result[i] = domain.EligibleVoter{
			ElectionID: domain.ElectionID(m.ElectionID),
			UserID:     domain.UserID(m.UserID),
			AddedBy:    domain.UserID(m.AddedBy),
			CreatedAt:  m.CreatedAt,
		}
	}
	return result, nil
}

// Add ignora entradas já existentes; reenviar a mesma lista não falha.
func (r *EligibleVoterRepository) Add(ctx context.Context, entries []domain.EligibleVoter) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]eligibleVoterModel, len(entries))
	for i, e := range entries {
		models[i] = eligibleVoterModel{
			ElectionID: string(e.ElectionID),
			UserID:     string(e.UserID),
			AddedBy:    string(e.AddedBy),
			CreatedAt:  e.CreatedAt,
		}
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models).Error; err != nil {
		return fmt.Errorf("gorm elegiveis: inserir: %w", err)
	}
	return nil
}

func (r *EligibleVoterRepository) Remove(ctx context.Context, electionID domain.ElectionID, userID domain.UserID) error {
	res := r.db.WithContext(ctx).
		Where("election_id = ? AND user_id = ?", electionID, userID).
		Delete(&eligibleVoterModel{})
	if res.Error != nil {
		return fmt.Errorf("gorm elegiveis: remover: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.EligibleVoterRepository = (*EligibleVoterRepository)(nil)
