package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelojr/uvote/internal/domain"
)

// CreateElection valida a eleição e cadastra os candidatos iniciais informados pelo administrador.
func (s *Service) CreateElection(ctx context.Context, e domain.Election, candidates []domain.Candidate) (domain.Election, error) {
	if err := normalizeElection(&e); err != nil {
		return domain.Election{}, err
	}
	now := s.clock.Now()

	e.ID = domain.ElectionID(s.ids.New())
	e.Status = e.EffectiveStatus(now)
	e.CreatedAt = now
	e.UpdatedAt = now

	created := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		prepared, err := s.prepareCandidate(e, c, now)
		if err != nil {
			return domain.Election{}, err
		}
		created[i] = prepared
	}

	if err := s.elections.Create(ctx, e); err != nil {
		return domain.Election{}, err
	}
	if err := s.candidates.BulkCreate(ctx, e.ID, created); err != nil {
		return domain.Election{}, err
	}

	s.logger.Info("eleicao criada", "op", "create_election", "election", e.ID, "by", e.CreatedBy, "positions", len(e.Positions))
	e.Candidates = created
	return e, nil
}

// UpdateElection substitui os campos editáveis; um encerramento antecipado continua valendo.
func (s *Service) UpdateElection(ctx context.Context, e domain.Election) (domain.Election, error) {
	current, err := s.loadElection(ctx, e.ID)
	if err != nil {
		return domain.Election{}, err
	}
	if err := normalizeElection(&e); err != nil {
		return domain.Election{}, err
	}
	now := s.clock.Now()

	e.CreatedBy = current.CreatedBy
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = now
	e.Status = current.Status
	if e.Status != domain.StatusCompleted {
		e.Status = e.EffectiveStatus(now)
	}

	if err := s.elections.Update(ctx, e); err != nil {
		return domain.Election{}, err
	}
	s.logger.Info("eleicao atualizada", "op", "update_election", "election", e.ID)
	return e, nil
}

// CompleteElection encerra a votação antes do fim da janela.
func (s *Service) CompleteElection(ctx context.Context, id domain.ElectionID) error {
	if _, err := s.loadElection(ctx, id); err != nil {
		return err
	}
	if err := s.elections.UpdateStatus(ctx, id, domain.StatusCompleted); err != nil {
		return err
	}
	s.logger.Info("eleicao encerrada manualmente", "op", "complete_election", "election", id)
	return nil
}

// DeleteElection remove a eleição e, em cascata, candidatos, candidaturas, votos e lista de autorizados.
func (s *Service) DeleteElection(ctx context.Context, id domain.ElectionID) error {
	if _, err := s.loadElection(ctx, id); err != nil {
		return err
	}
	if err := s.elections.Delete(ctx, id); err != nil {
		s.logger.Error("falha ao remover eleicao", "op", "delete_election", "election", id, "err", err)
		return err
	}
	s.logger.Warn("eleicao removida", "op", "delete_election", "election", id)
	return nil
}

// ResetVotes apaga todas as linhas de voto da eleição; todos podem votar de novo.
func (s *Service) ResetVotes(ctx context.Context, id domain.ElectionID) (int64, error) {
	if _, err := s.loadElection(ctx, id); err != nil {
		return 0, err
	}
	removed, err := s.votes.DeleteByElection(ctx, id)
	if err != nil {
		s.logger.Error("falha ao zerar votos", "op", "reset_votes", "election", id, "err", err)
		return 0, err
	}
	s.logger.Warn("votos zerados", "op", "reset_votes", "election", id, "rows", removed)
	return removed, nil
}

// GetElection devolve a eleição com o status efetivo no momento da consulta.
func (s *Service) GetElection(ctx context.Context, id domain.ElectionID) (domain.Election, error) {
	e, err := s.loadElection(ctx, id)
	if err != nil {
		return domain.Election{}, err
	}
	e.Status = e.EffectiveStatus(s.clock.Now())
	return e, nil
}

// ListElections filtra pelo status efetivo; status vazio devolve todas.
func (s *Service) ListElections(ctx context.Context, status domain.ElectionStatus) ([]domain.Election, error) {
	all, err := s.elections.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	result := make([]domain.Election, 0, len(all))
	for _, e := range all {
		e.Status = e.EffectiveStatus(now)
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func normalizeElection(e *domain.Election) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return fmt.Errorf("%w: titulo obrigatorio", ErrElectionInvalid)
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() || !e.EndDate.After(e.StartDate) {
		return fmt.Errorf("%w: janela de votacao invalida", ErrElectionInvalid)
	}
	if e.CandidacyStartDate != nil && e.CandidacyEndDate != nil && e.CandidacyEndDate.Before(*e.CandidacyStartDate) {
		return fmt.Errorf("%w: janela de candidatura invalida", ErrElectionInvalid)
	}
	if e.CandidacyEndDate != nil && e.CandidacyEndDate.After(e.EndDate) {
		return fmt.Errorf("%w: candidatura termina depois da votacao", ErrElectionInvalid)
	}
	if e.IsPrivate && strings.TrimSpace(e.AccessCode) == "" {
		return fmt.Errorf("%w: eleicao privada exige codigo de acesso", ErrElectionInvalid)
	}

	positions, err := cleanList(e.Positions, true)
	if err != nil {
		return err
	}
	e.Positions = positions
	e.Departments, _ = cleanList(e.Departments, false)
	e.YearLevels, _ = cleanList(e.YearLevels, false)
	return nil
}

// cleanList remove vazios e repetidos; strict transforma repetição em erro.
func cleanList(values []string, strict bool) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			if strict {
				return nil, fmt.Errorf("%w: cargo repetido %q", ErrElectionInvalid, v)
			}
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
