package domain

import (
	"context"
	"time"
)

type ElectionRepository interface {
	Create(ctx context.Context, e Election) error
	Update(ctx context.Context, e Election) error
	UpdateStatus(ctx context.Context, id ElectionID, status ElectionStatus) error
	Delete(ctx context.Context, id ElectionID) error
	FindByID(ctx context.Context, id ElectionID) (Election, error)
	List(ctx context.Context) ([]Election, error)
}

type CandidateRepository interface {
	BulkCreate(ctx context.Context, electionID ElectionID, candidates []Candidate) error
	ListByElection(ctx context.Context, electionID ElectionID) ([]Candidate, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, a CandidateApplication) error
	FindByID(ctx context.Context, id ApplicationID) (CandidateApplication, error)
	ListByElection(ctx context.Context, electionID ElectionID) ([]CandidateApplication, error)
	Update(ctx context.Context, a CandidateApplication) error
}

type VoteRepository interface {
	HasVoted(ctx context.Context, electionID ElectionID, userID UserID) (bool, error)
	// RecordBallot grava todas as linhas da cédula de forma atômica e devolve ErrDuplicateBallot
	// quando o eleitor já possui linhas na eleição.
	RecordBallot(ctx context.Context, votes []Vote) error
	ListByElection(ctx context.Context, electionID ElectionID) ([]Vote, error)
	DeleteByElection(ctx context.Context, electionID ElectionID) (int64, error)
}

type ProfileRepository interface {
	FindByID(ctx context.Context, id UserID) (VoterProfile, error)
	ListVerified(ctx context.Context) ([]VoterProfile, error)
	Upsert(ctx context.Context, p VoterProfile) error
}

type EligibleVoterRepository interface {
	IsListed(ctx context.Context, electionID ElectionID, userID UserID) (bool, error)
	ListByElection(ctx context.Context, electionID ElectionID) ([]EligibleVoter, error)
	Add(ctx context.Context, entries []EligibleVoter) error
	Remove(ctx context.Context, electionID ElectionID, userID UserID) error
}

// BallotLock serializa submissões do mesmo eleitor na mesma eleição. release devolve a falha ao apagar a trava;
// o TTL a expira de qualquer forma.
type BallotLock interface {
	Acquire(ctx context.Context, electionID ElectionID, userID UserID) (release func() error, err error)
}

type Antifraude interface {
	CheckAttempt(ctx context.Context, electionID ElectionID, userID UserID) error
}

type Clock interface {
	Now() time.Time
}
