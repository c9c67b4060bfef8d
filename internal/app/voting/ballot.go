package voting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/metrics"
)

// BallotRequest traz as escolhas por cargo; domain.Abstain marca abstenção explícita.
type BallotRequest struct {
	ElectionID domain.ElectionID
	VoterID    domain.UserID
	Selections map[string]domain.CandidateID
	AccessCode string
}

type Receipt struct {
	ElectionID domain.ElectionID `json:"election_id"`
	VoterID    domain.UserID     `json:"voter_id"`
	Positions  int               `json:"positions"`
	Abstained  int               `json:"abstained"`
	CastAt     time.Time         `json:"cast_at"`
}

// HasVoted devolve true se existir qualquer linha do eleitor na eleição, inclusive só o marcador.
func (s *Service) HasVoted(ctx context.Context, voterID domain.UserID, electionID domain.ElectionID) (bool, error) {
	voted, err := s.votes.HasVoted(ctx, electionID, voterID)
	if err != nil {
		s.logger.Error("falha ao consultar voto existente", "op", "has_voted", "election", electionID, "voter", voterID, "err", err)
		return false, err
	}
	return voted, nil
}

// CastBallot valida e grava a cédula completa. O índice único do marcador é a última barreira contra voto duplo.
func (s *Service) CastBallot(ctx context.Context, req BallotRequest) (Receipt, error) {
	log := s.logger.With("op", "cast_ballot", "election", req.ElectionID, "voter", req.VoterID)

	receipt, err := s.castBallot(ctx, req)
	if err != nil {
		if isRejection(err) {
			log.Warn("cedula rejeitada", "err", err)
		} else {
			log.Error("falha ao gravar cedula", "err", err)
		}
		return Receipt{}, err
	}

	log.Info("cedula registrada", "positions", receipt.Positions, "abstained", receipt.Abstained)
	return receipt, nil
}

func (s *Service) castBallot(ctx context.Context, req BallotRequest) (Receipt, error) {
	if req.VoterID == "" {
		return Receipt{}, fmt.Errorf("%w: eleitor obrigatorio", ErrInvalidBallot)
	}

	election, err := s.loadElection(ctx, req.ElectionID)
	if err != nil {
		return Receipt{}, err
	}
	if !CanAccess(election, req.AccessCode) {
		return Receipt{}, ErrAccessDenied
	}

	now := s.clock.Now()
	if election.EffectiveStatus(now) != domain.StatusActive {
		return Receipt{}, ErrVotingClosed
	}

	decision, err := s.evaluate(ctx, election, req.VoterID)
	if err != nil {
		return Receipt{}, fmt.Errorf("voting: avaliar elegibilidade: %w", err)
	}
	if !decision.Eligible {
		return Receipt{}, &IneligibleError{Reason: decision.Reason}
	}

	if s.antifraude != nil {
		if err := s.antifraude.CheckAttempt(ctx, election.ID, req.VoterID); err != nil {
			return Receipt{}, err
		}
	}

	voted, err := s.votes.HasVoted(ctx, election.ID, req.VoterID)
	if err != nil {
		return Receipt{}, fmt.Errorf("voting: consultar voto existente: %w", err)
	}
	if voted {
		return Receipt{}, ErrAlreadyVoted
	}

	candidates, err := s.candidates.ListByElection(ctx, election.ID)
	if err != nil {
		return Receipt{}, fmt.Errorf("voting: listar candidatos: %w", err)
	}

	rows, abstained, err := s.buildBallot(election, candidates, req, now)
	if err != nil {
		return Receipt{}, err
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, election.ID, req.VoterID)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return Receipt{}, ErrBallotInProgress
			}
			return Receipt{}, fmt.Errorf("voting: adquirir trava da cedula: %w", err)
		}
		defer func() {
			if err := release(); err != nil {
				s.logger.Warn("falha ao liberar trava da cedula", "op", "cast_ballot", "election", election.ID, "voter", req.VoterID, "err", err)
			}
		}()
	}

	start := time.Now()
	err = s.votes.RecordBallot(ctx, rows)
	metrics.ObserveBallotWrite(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateBallot) {
			return Receipt{}, ErrAlreadyVoted
		}
		return Receipt{}, fmt.Errorf("voting: gravar cedula: %w", err)
	}

	return Receipt{
		ElectionID: election.ID,
		VoterID:    req.VoterID,
		Positions:  len(rows) - 1,
		Abstained:  abstained,
		CastAt:     now,
	}, nil
}

// buildBallot gera uma linha por cargo (concreta ou abstenção) mais o marcador de conclusão.
func (s *Service) buildBallot(election domain.Election, candidates []domain.Candidate, req BallotRequest, now time.Time) ([]domain.Vote, int, error) {
	positions := domain.BallotPositions(election, candidates)

	canonical := make(map[string]string, len(positions))
	for _, p := range positions {
		canonical[normalizePosition(p)] = p
	}

	chosen := make(map[string]domain.CandidateID, len(req.Selections))
	verr := &BallotValidationError{}
	for position, candidateID := range req.Selections {
		name, ok := canonical[normalizePosition(position)]
		if !ok {
			verr.Unknown = append(verr.Unknown, position)
			continue
		}
		// Duas chaves para o mesmo cargo tornariam a escolha dependente da ordem do map.
		if _, dup := chosen[name]; dup {
			if !slices.Contains(verr.Duplicated, name) {
				verr.Duplicated = append(verr.Duplicated, name)
			}
			continue
		}
		chosen[name] = candidateID
	}
	sort.Strings(verr.Unknown)
	sort.Strings(verr.Duplicated)

	for _, p := range positions {
		if slices.Contains(verr.Duplicated, p) {
			continue
		}
		candidateID, ok := chosen[p]
		if !ok {
			verr.Missing = append(verr.Missing, p)
			continue
		}
		if candidateID == domain.Abstain {
			continue
		}
		if !runsFor(candidates, candidateID, p) {
			verr.InvalidCandidates = append(verr.InvalidCandidates, fmt.Sprintf("%s: %s", p, candidateID))
		}
	}
	if !verr.empty() {
		return nil, 0, verr
	}

	rows := make([]domain.Vote, 0, len(positions)+1)
	abstained := 0
	for _, p := range positions {
		position := p
		vote := domain.Vote{
			ID:         domain.VoteID(s.ids.New()),
			ElectionID: election.ID,
			UserID:     req.VoterID,
			Position:   &position,
			CreatedAt:  now,
		}
		if candidateID := chosen[p]; candidateID != domain.Abstain {
			vote.CandidateID = &candidateID
		} else {
			abstained++
		}
		rows = append(rows, vote)
	}
	rows = append(rows, domain.Vote{
		ID:         domain.VoteID(s.ids.New()),
		ElectionID: election.ID,
		UserID:     req.VoterID,
		CreatedAt:  now,
	})

	return rows, abstained, nil
}

func runsFor(candidates []domain.Candidate, id domain.CandidateID, position string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return normalizePosition(c.Position) == normalizePosition(position)
		}
	}
	return false
}

func normalizePosition(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// isRejection separa recusas de regra de negócio de falhas de infraestrutura.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrElectionNotFound,
		ErrAccessDenied,
		ErrVotingClosed,
		ErrNotEligible,
		ErrAlreadyVoted,
		ErrInvalidBallot,
		ErrBallotInProgress,
		domain.ErrRateLimited,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
