package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/uvote/internal/domain"
)

// ElectionRepository mapeia o agregado de eleição para tabelas GORM.
type ElectionRepository struct {
	db *gorm.DB
}

func NewElectionRepository(db *gorm.DB) *ElectionRepository {
	return &ElectionRepository{db: db}
}

type electionModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	Title              string     `gorm:"column:title"`
	Description        string     `gorm:"column:description"`
	StartDate          time.Time  `gorm:"column:start_date"`
	EndDate            time.Time  `gorm:"column:end_date"`
	CandidacyStartDate *time.Time `gorm:"column:candidacy_start_date"`
	CandidacyEndDate   *time.Time `gorm:"column:candidacy_end_date"`
	Status             string     `gorm:"column:status"`
	Positions          []string   `gorm:"column:positions;serializer:json"`
	Departments        []string   `gorm:"column:departments;serializer:json"`
	YearLevels         []string   `gorm:"column:year_levels;serializer:json"`
	RestrictVoting     bool       `gorm:"column:restrict_voting"`
	IsPrivate          bool       `gorm:"column:is_private"`
	AccessCode         string     `gorm:"column:access_code"`
	CreatedBy          string     `gorm:"column:created_by"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func (m electionModel) toDomain() domain.Election {
	return domain.Election{
		ID:                 domain.ElectionID(m.ID),
		Title:              m.Title,
		Description:        m.Description,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		CandidacyStartDate: m.CandidacyStartDate,
		CandidacyEndDate:   m.CandidacyEndDate,
		Status:             domain.ElectionStatus(m.Status),
		Positions:          m.Positions,
		Departments:        m.Departments,
		YearLevels:         m.YearLevels,
		RestrictVoting:     m.RestrictVoting,
		IsPrivate:          m.IsPrivate,
		AccessCode:         m.AccessCode,
		CreatedBy:          domain.UserID(m.CreatedBy),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func fromDomainElection(e domain.Election) electionModel {
	return electionModel{
		ID:                 string(e.ID),
		Title:              e.Title,
		Description:        e.Description,
		StartDate:          e.StartDate,
		EndDate:            e.EndDate,
		CandidacyStartDate: e.CandidacyStartDate,
		CandidacyEndDate:   e.CandidacyEndDate,
		Status:             string(e.Status),
		Positions:          nonNil(e.Positions),
		Departments:        nonNil(e.Departments),
		YearLevels:         nonNil(e.YearLevels),
		RestrictVoting:     e.RestrictVoting,
		IsPrivate:          e.IsPrivate,
		AccessCode:         e.AccessCode,
		CreatedBy:          string(e.CreatedBy),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func (r *ElectionRepository) Create(ctx context.Context, e domain.Election) error {
	model := fromDomainElection(e)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm eleicao: inserir: %w", err)
	}
	return nil
}

func (r *ElectionRepository) Update(ctx context.Context, e domain.Election) error {
	model := fromDomainElection(e)
	// Select explícito garante que zeros (ex.: restrict_voting=false) também sejam gravados.
	res := r.db.WithContext(ctx).Model(&electionModel{ID: model.ID}).
		Select("title", "description", "start_date", "end_date", "candidacy_start_date", "candidacy_end_date",
			"status", "positions", "departments", "year_levels", "restrict_voting", "is_private", "access_code", "updated_at").
		Updates(&model)
	if res.Error != nil {
		return fmt.Errorf("gorm eleicao: atualizar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ElectionRepository) UpdateStatus(ctx context.Context, id domain.ElectionID, status domain.ElectionStatus) error {
	res := r.db.WithContext(ctx).Model(&electionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("gorm eleicao: atualizar status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete remove a eleição e tudo que depende dela na mesma transação, sem depender de ON DELETE CASCADE.
func (r *ElectionRepository) Delete(ctx context.Context, id domain.ElectionID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependentes := []any{&voteModel{}, &eligibleVoterModel{}, &applicationModel{}, &candidateModel{}}
		for _, model := range dependentes {
			if err := tx.Where("election_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("gorm eleicao: remover dependentes: %w", err)
			}
		}
		res := tx.Where("id = ?", id).Delete(&electionModel{})
		if res.Error != nil {
			return fmt.Errorf("gorm eleicao: remover: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *ElectionRepository) FindByID(ctx context.Context, id domain.ElectionID) (domain.Election, error) {
	var model electionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Election{}, domain.ErrNotFound
		}
		return domain.Election{}, fmt.Errorf("gorm eleicao: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ElectionRepository) List(ctx context.Context) ([]domain.Election, error) {
	var models []electionModel
	if err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm eleicao: listar: %w", err)
	}

	result := make([]domain.Election, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ domain.ElectionRepository = (*ElectionRepository)(nil)
