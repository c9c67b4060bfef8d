// Pacote voting implementa as regras da eleição: administração, guarda contra voto duplicado e registro de cédulas.
package voting

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/marcelojr/uvote/internal/app/eligibility"
	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/ids"
	"github.com/marcelojr/uvote/internal/platform/logger"
)

// Repositories agrupa as coleções consumidas pelo serviço.
type Repositories struct {
	Elections      domain.ElectionRepository
	Candidates     domain.CandidateRepository
	Applications   domain.ApplicationRepository
	Votes          domain.VoteRepository
	Profiles       domain.ProfileRepository
	EligibleVoters domain.EligibleVoterRepository
}

// Service concentra as regras de votação; todas as páginas passam por aqui em vez de gravar votos direto.
type Service struct {
	elections      domain.ElectionRepository
	candidates     domain.CandidateRepository
	applications   domain.ApplicationRepository
	votes          domain.VoteRepository
	profiles       domain.ProfileRepository
	eligibleVoters domain.EligibleVoterRepository
	lock           domain.BallotLock
	antifraude     domain.Antifraude
	clock          domain.Clock
	ids            *ids.Generator
	logger         *slog.Logger
}

func NewService(
	repos Repositories,
	lock domain.BallotLock,
	antifraude domain.Antifraude,
	clock domain.Clock,
	idsGen *ids.Generator,
	log *slog.Logger,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if log == nil {
		log = logger.L()
	}
	return &Service{
		elections:      repos.Elections,
		candidates:     repos.Candidates,
		applications:   repos.Applications,
		votes:          repos.Votes,
		profiles:       repos.Profiles,
		eligibleVoters: repos.EligibleVoters,
		lock:           lock,
		antifraude:     antifraude,
		clock:          clock,
		ids:            idsGen,
		logger:         log,
	}
}

// CanAccess valida o código de eleições privadas em tempo constante.
func CanAccess(e domain.Election, code string) bool {
	if !e.IsPrivate {
		return true
	}
	if e.AccessCode == "" || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(e.AccessCode), []byte(code)) == 1
}

func (s *Service) loadElection(ctx context.Context, id domain.ElectionID) (domain.Election, error) {
	// Ids fora do formato ULID nunca chegam ao banco.
	if !ids.Valid(string(id)) {
		return domain.Election{}, ErrElectionNotFound
	}
	e, err := s.elections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Election{}, ErrElectionNotFound
		}
		return domain.Election{}, err
	}
	return e, nil
}

// CheckEligibility roda o avaliador contra o perfil atual; nada é guardado entre chamadas.
func (s *Service) CheckEligibility(ctx context.Context, electionID domain.ElectionID, voterID domain.UserID) (eligibility.Decision, error) {
	e, err := s.loadElection(ctx, electionID)
	if err != nil {
		return eligibility.Decision{}, err
	}
	return s.evaluate(ctx, e, voterID)
}

func (s *Service) evaluate(ctx context.Context, e domain.Election, voterID domain.UserID) (eligibility.Decision, error) {
	profile, err := s.profiles.FindByID(ctx, voterID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return eligibility.Decision{}, err
		}
		// Sem perfil equivale a perfil não verificado.
		profile = domain.VoterProfile{ID: voterID}
	}

	var allowed eligibility.AllowList
	if e.RestrictVoting {
		listed, err := s.eligibleVoters.IsListed(ctx, e.ID, voterID)
		if err != nil {
			return eligibility.Decision{}, err
		}
		allowed = eligibility.Single(voterID, listed)
	}

	return eligibility.Evaluate(profile, e.Eligibility(), allowed), nil
}
