package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelojr/uvote/internal/domain"
)

// AddCandidate cadastra um candidato direto, sem passar por candidatura.
func (s *Service) AddCandidate(ctx context.Context, electionID domain.ElectionID, c domain.Candidate) (domain.Candidate, error) {
	e, err := s.loadElection(ctx, electionID)
	if err != nil {
		return domain.Candidate{}, err
	}
	prepared, err := s.prepareCandidate(e, c, s.clock.Now())
	if err != nil {
		return domain.Candidate{}, err
	}
	if err := s.candidates.BulkCreate(ctx, e.ID, []domain.Candidate{prepared}); err != nil {
		return domain.Candidate{}, err
	}
	return prepared, nil
}

func (s *Service) ListCandidates(ctx context.Context, electionID domain.ElectionID) ([]domain.Candidate, error) {
	if _, err := s.loadElection(ctx, electionID); err != nil {
		return nil, err
	}
	return s.candidates.ListByElection(ctx, electionID)
}

// prepareCandidate valida o cargo: com lista definida na eleição ele precisa existir nela; sem lista, o texto é livre.
func (s *Service) prepareCandidate(e domain.Election, c domain.Candidate, now time.Time) (domain.Candidate, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Candidate{}, fmt.Errorf("%w: nome obrigatorio", ErrCandidateInvalid)
	}
	position, err := resolvePosition(e, c.Position)
	if err != nil {
		return domain.Candidate{}, err
	}
	c.Position = position
	c.ID = domain.CandidateID(s.ids.New())
	c.ElectionID = e.ID
	c.CreatedAt = now
	return c, nil
}

func resolvePosition(e domain.Election, position string) (string, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		return "", fmt.Errorf("%w: cargo obrigatorio", ErrCandidateInvalid)
	}
	if len(e.Positions) == 0 {
		return position, nil
	}
	for _, p := range e.Positions {
		if normalizePosition(p) == normalizePosition(position) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: cargo %q nao existe na eleicao", ErrCandidateInvalid, position)
}

// SubmitApplication registra o pedido de um eleitor para concorrer; só vale dentro da janela de candidatura.
func (s *Service) SubmitApplication(ctx context.Context, a domain.CandidateApplication) (domain.CandidateApplication, error) {
	e, err := s.loadElection(ctx, a.ElectionID)
	if err != nil {
		return domain.CandidateApplication{}, err
	}
	now := s.clock.Now()
	if e.Status == domain.StatusCompleted || !e.CandidacyOpen(now) {
		return domain.CandidateApplication{}, ErrApplicationClosed
	}
	if a.UserID == "" {
		return domain.CandidateApplication{}, fmt.Errorf("%w: usuario obrigatorio", ErrCandidateInvalid)
	}
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return domain.CandidateApplication{}, fmt.Errorf("%w: nome obrigatorio", ErrCandidateInvalid)
	}
	position, err := resolvePosition(e, a.Position)
	if err != nil {
		return domain.CandidateApplication{}, err
	}

	existing, err := s.applications.ListByElection(ctx, e.ID)
	if err != nil {
		return domain.CandidateApplication{}, err
	}
	for _, other := range existing {
		if other.UserID == a.UserID && other.Status != domain.ApplicationRejected {
			return domain.CandidateApplication{}, ErrApplicationExists
		}
	}

	a.ID = domain.ApplicationID(s.ids.New())
	a.Position = position
	a.Status = domain.ApplicationPending
	a.ReviewedBy = ""
	a.ReviewedAt = nil
	a.CreatedAt = now

	if err := s.applications.Create(ctx, a); err != nil {
		return domain.CandidateApplication{}, err
	}
	s.logger.Info("candidatura recebida", "op", "submit_application", "election", e.ID, "user", a.UserID, "position", a.Position)
	return a, nil
}

func (s *Service) ListApplications(ctx context.Context, electionID domain.ElectionID) ([]domain.CandidateApplication, error) {
	if _, err := s.loadElection(ctx, electionID); err != nil {
		return nil, err
	}
	return s.applications.ListByElection(ctx, electionID)
}

// ReviewApplication aprova ou rejeita uma candidatura pendente; aprovar cria o candidato.
func (s *Service) ReviewApplication(ctx context.Context, id domain.ApplicationID, approve bool, reviewer domain.UserID) (domain.CandidateApplication, error) {
	a, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CandidateApplication{}, ErrApplicationNotFound
		}
		return domain.CandidateApplication{}, err
	}
	if a.Status != domain.ApplicationPending {
		return domain.CandidateApplication{}, ErrApplicationReviewed
	}

	now := s.clock.Now()
	a.ReviewedBy = reviewer
	a.ReviewedAt = &now
	a.Status = domain.ApplicationRejected

	if approve {
		e, err := s.loadElection(ctx, a.ElectionID)
		if err != nil {
			return domain.CandidateApplication{}, err
		}
		candidate := domain.Candidate{
			UserID:   a.UserID,
			Name:     a.Name,
			Position: a.Position,
			Bio:      a.Platform,
			ImageURL: a.ImageURL,
		}
		profile, err := s.profiles.FindByID(ctx, a.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.CandidateApplication{}, err
		}
		candidate.Department = profile.Department
		candidate.YearLevel = profile.YearLevel
		candidate.StudentID = profile.StudentID

		prepared, err := s.prepareCandidate(e, candidate, now)
		if err != nil {
			return domain.CandidateApplication{}, err
		}
		// Uma aprovação anterior pode ter criado o candidato e falhado ao atualizar a candidatura.
		existing, err := s.candidates.ListByElection(ctx, e.ID)
		if err != nil {
			return domain.CandidateApplication{}, err
		}
		if !hasCandidacy(existing, a.UserID, prepared.Position) {
			if err := s.candidates.BulkCreate(ctx, e.ID, []domain.Candidate{prepared}); err != nil {
				return domain.CandidateApplication{}, err
			}
		}
		a.Status = domain.ApplicationApproved
	}

	if err := s.applications.Update(ctx, a); err != nil {
		return domain.CandidateApplication{}, err
	}
	s.logger.Info("candidatura avaliada", "op", "review_application", "application", a.ID, "election", a.ElectionID, "status", a.Status, "by", reviewer)
	return a, nil
}

func hasCandidacy(candidates []domain.Candidate, user domain.UserID, position string) bool {
	for _, c := range candidates {
		if c.UserID == user && normalizePosition(c.Position) == normalizePosition(position) {
			return true
		}
	}
	return false
}

// AddEligibleVoters inclui eleitores na lista de autorizados; repetidos são ignorados.
func (s *Service) AddEligibleVoters(ctx context.Context, electionID domain.ElectionID, users []domain.UserID, addedBy domain.UserID) error {
	if _, err := s.loadElection(ctx, electionID); err != nil {
		return err
	}
	now := s.clock.Now()
	seen := make(map[domain.UserID]struct{}, len(users))
	entries := make([]domain.EligibleVoter, 0, len(users))
	for _, u := range users {
		u = domain.UserID(strings.TrimSpace(string(u)))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		entries = append(entries, domain.EligibleVoter{
			ElectionID: electionID,
			UserID:     u,
			AddedBy:    addedBy,
			CreatedAt:  now,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return s.eligibleVoters.Add(ctx, entries)
}

func (s *Service) RemoveEligibleVoter(ctx context.Context, electionID domain.ElectionID, user domain.UserID) error {
	if _, err := s.loadElection(ctx, electionID); err != nil {
		return err
	}
	return s.eligibleVoters.Remove(ctx, electionID, user)
}

func (s *Service) ListEligibleVoters(ctx context.Context, electionID domain.ElectionID) ([]domain.EligibleVoter, error) {
	if _, err := s.loadElection(ctx, electionID); err != nil {
		return nil, err
	}
	return s.eligibleVoters.ListByElection(ctx, electionID)
}

// UpsertProfile grava os dados acadêmicos usados na elegibilidade.
func (s *Service) UpsertProfile(ctx context.Context, p domain.VoterProfile) (domain.VoterProfile, error) {
	p.ID = domain.UserID(strings.TrimSpace(string(p.ID)))
	if p.ID == "" {
		return domain.VoterProfile{}, fmt.Errorf("%w: id obrigatorio", ErrProfileInvalid)
	}
	p.Department = strings.TrimSpace(p.Department)
	p.YearLevel = strings.TrimSpace(p.YearLevel)
	p.UpdatedAt = s.clock.Now()
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return domain.VoterProfile{}, err
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id domain.UserID) (domain.VoterProfile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.VoterProfile{}, ErrProfileNotFound
		}
		return domain.VoterProfile{}, err
	}
	return p, nil
}
