package voting

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrElectionInvalid     = errors.New("eleicao invalida")
	ErrElectionNotFound    = errors.New("eleicao nao encontrada")
	ErrAccessDenied        = errors.New("codigo de acesso invalido")
	ErrVotingClosed        = errors.New("voting closed")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrNotEligible         = errors.New("eleitor nao elegivel")
	ErrInvalidBallot       = errors.New("cedula invalida")
	ErrBallotInProgress    = errors.New("cedula ja em processamento")
	ErrCandidateInvalid    = errors.New("candidato invalido")
	ErrApplicationNotFound = errors.New("candidatura nao encontrada")
	ErrApplicationClosed   = errors.New("periodo de candidatura encerrado")
	ErrApplicationReviewed = errors.New("candidatura ja avaliada")
	ErrApplicationExists   = errors.New("candidatura ja registrada")
	ErrProfileInvalid      = errors.New("perfil invalido")
	ErrProfileNotFound     = errors.New("perfil nao encontrado")
)

// IneligibleError carrega o motivo devolvido pelo avaliador de elegibilidade.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string { return e.Reason }

func (e *IneligibleError) Unwrap() error { return ErrNotEligible }

// BallotValidationError lista o que falta ou sobra na cédula.
type BallotValidationError struct {
	Missing           []string `json:"missing,omitempty"`
	Unknown           []string `json:"unknown,omitempty"`
	InvalidCandidates []string `json:"invalid_candidates,omitempty"`
	Duplicated        []string `json:"duplicated,omitempty"`
}

func (e *BallotValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing positions: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown positions: %s", strings.Join(e.Unknown, ", ")))
	}
	if len(e.InvalidCandidates) > 0 {
		parts = append(parts, fmt.Sprintf("invalid candidates: %s", strings.Join(e.InvalidCandidates, ", ")))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated positions: %s", strings.Join(e.Duplicated, ", ")))
	}
	return "ballot incomplete: " + strings.Join(parts, "; ")
}

func (e *BallotValidationError) Unwrap() error { return ErrInvalidBallot }

func (e *BallotValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Unknown) == 0 && len(e.InvalidCandidates) == 0 && len(e.Duplicated) == 0
}
