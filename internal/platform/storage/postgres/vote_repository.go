package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/uvote/internal/domain"
)

// VoteRepository guarda as linhas da cédula; a unicidade fica com os índices parciais da migration.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

type voteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ElectionID  string    `gorm:"column:election_id;index"`
	UserID      string    `gorm:"column:user_id"`
	Position    *string   `gorm:"column:position"`
	CandidateID *string   `gorm:"column:candidate_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func (m voteModel) toDomain() domain.Vote {
	v := domain.Vote{
		ID:         domain.VoteID(m.ID),
		ElectionID: domain.ElectionID(m.ElectionID),
		UserID:     domain.UserID(m.UserID),
		Position:   m.Position,
		CreatedAt:  m.CreatedAt,
	}
	if m.CandidateID != nil {
		id := domain.CandidateID(*m.CandidateID)
		v.CandidateID = &id
	}
	return v
}

func fromDomainVote(v domain.Vote) voteModel {
	m := voteModel{
		ID:         string(v.ID),
		ElectionID: string(v.ElectionID),
		UserID:     string(v.UserID),
		Position:   v.Position,
		CreatedAt:  v.CreatedAt,
	}
	if v.CandidateID != nil {
		id := string(*v.CandidateID)
		m.CandidateID = &id
	}
	return m
}

func (r *VoteRepository) HasVoted(ctx context.Context, electionID domain.ElectionID, userID domain.UserID) (bool, error) {
	return hasAnyVote(r.db.WithContext(ctx), electionID, userID)
}

func hasAnyVote(db *gorm.DB, electionID domain.ElectionID, userID domain.UserID) (bool, error) {
	var total int64
	if err := db.Model(&voteModel{}).
		Where("election_id = ? AND user_id = ?", electionID, userID).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm votos: verificar voto: %w", err)
	}
	return total > 0, nil
}

// RecordBallot grava linhas e marcador juntos ou nada. Qualquer linha já existente do eleitor
// conta como voto; o índice único cobre a corrida entre duas transações.
func (r *VoteRepository) RecordBallot(ctx context.Context, votes []domain.Vote) error {
	if len(votes) == 0 {
		return nil
	}

	models := make([]voteModel, len(votes))
	for i, v := range votes {
		models[i] = fromDomainVote(v)
	}
	first := votes[0]

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voted, err := hasAnyVote(tx, first.ElectionID, first.UserID)
		if err != nil {
			return err
		}
		if voted {
			return domain.ErrDuplicateBallot
		}
		return tx.Create(&models).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateBallot), errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateBallot
	default:
		return fmt.Errorf("gorm votos: registrar cedula: %w", err)
	}
}

func (r *VoteRepository) ListByElection(ctx context.Context, electionID domain.ElectionID) ([]domain.Vote, error) {
	var models []voteModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: listar eleicao: %w", err)
	}

	result := make([]domain.Vote, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func (r *VoteRepository) DeleteByElection(ctx context.Context, electionID domain.ElectionID) (int64, error) {
	res := r.db.WithContext(ctx).Where("election_id = ?", electionID).Delete(&voteModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm votos: remover eleicao: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ domain.VoteRepository = (*VoteRepository)(nil)
