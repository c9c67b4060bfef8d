package voting

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/ids"
)

type serviceDependencies struct {
	elections    *inMemoryElectionRepo
	candidates   *inMemoryCandidateRepo
	applications *inMemoryApplicationRepo
	votes        *inMemoryVoteRepo
	profiles     *inMemoryProfileRepo
	eligible     *inMemoryEligibleRepo
	lock         *fakeLock
	antifraude   *fakeAntifraude
	clock        *staticClock
	baseTime     time.Time
}

func newServiceDeps() serviceDependencies {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return serviceDependencies{
		elections:    &inMemoryElectionRepo{data: make(map[domain.ElectionID]domain.Election)},
		candidates:   &inMemoryCandidateRepo{},
		applications: &inMemoryApplicationRepo{data: make(map[domain.ApplicationID]domain.CandidateApplication)},
		votes:        &inMemoryVoteRepo{},
		profiles:     &inMemoryProfileRepo{data: make(map[domain.UserID]domain.VoterProfile)},
		eligible:     &inMemoryEligibleRepo{data: make(map[domain.ElectionID]map[domain.UserID]domain.EligibleVoter)},
		lock:         &fakeLock{held: make(map[string]bool)},
		antifraude:   &fakeAntifraude{},
		clock:        &staticClock{now: base},
		baseTime:     base,
	}
}

func (d serviceDependencies) service() *Service {
	return d.serviceWithLogger(nil)
}

func (d serviceDependencies) serviceWithLogger(log *slog.Logger) *Service {
	return NewService(Repositories{
		Elections:      d.elections,
		Candidates:     d.candidates,
		Applications:   d.applications,
		Votes:          d.votes,
		Profiles:       d.profiles,
		EligibleVoters: d.eligible,
	}, d.lock, d.antifraude, d.clock, ids.NewGenerator(), log)
}

type inMemoryElectionRepo struct {
	mu   sync.Mutex
	data map[domain.ElectionID]domain.Election
}

func (r *inMemoryElectionRepo) Create(_ context.Context, e domain.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Candidates = nil
	r.data[e.ID] = e
	return nil
}

func (r *inMemoryElectionRepo) Update(_ context.Context, e domain.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[e.ID] = e
	return nil
}

func (r *inMemoryElectionRepo) UpdateStatus(_ context.Context, id domain.ElectionID, status domain.ElectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	r.data[id] = e
	return nil
}

func (r *inMemoryElectionRepo) Delete(_ context.Context, id domain.ElectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *inMemoryElectionRepo) FindByID(_ context.Context, id domain.ElectionID) (domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok {
		return domain.Election{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *inMemoryElectionRepo) List(_ context.Context) ([]domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Election, 0, len(r.data))
	for _, e := range r.data {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

type inMemoryCandidateRepo struct {
	mu   sync.Mutex
	data []domain.Candidate
}

func (r *inMemoryCandidateRepo) BulkCreate(_ context.Context, electionID domain.ElectionID, candidates []domain.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range candidates {
		c.ElectionID = electionID
		r.data = append(r.data, c)
	}
	return nil
}

func (r *inMemoryCandidateRepo) ListByElection(_ context.Context, electionID domain.ElectionID) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Candidate
	for _, c := range r.data {
		if c.ElectionID == electionID {
			out = append(out, c)
		}
	}
	return out, nil
}

type inMemoryApplicationRepo struct {
	mu        sync.Mutex
	data      map[domain.ApplicationID]domain.CandidateApplication
	updateErr error
}

func (r *inMemoryApplicationRepo) Create(_ context.Context, a domain.CandidateApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[a.ID] = a
	return nil
}

func (r *inMemoryApplicationRepo) FindByID(_ context.Context, id domain.ApplicationID) (domain.CandidateApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return domain.CandidateApplication{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *inMemoryApplicationRepo) ListByElection(_ context.Context, electionID domain.ElectionID) ([]domain.CandidateApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CandidateApplication
	for _, a := range r.data {
		if a.ElectionID == electionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *inMemoryApplicationRepo) Update(_ context.Context, a domain.CandidateApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// updateErr falha apenas a próxima chamada.
	if err := r.updateErr; err != nil {
		r.updateErr = nil
		return err
	}
	if _, ok := r.data[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[a.ID] = a
	return nil
}

// inMemoryVoteRepo reproduz a regra do índice único: uma cédula por eleitor e eleição.
type inMemoryVoteRepo struct {
	mu        sync.Mutex
	rows      []domain.Vote
	failWrite error
	// skipHasVoted simula a corrida em que a checagem prévia não enxerga a cédula concorrente.
	skipHasVoted bool
}

func (r *inMemoryVoteRepo) HasVoted(_ context.Context, electionID domain.ElectionID, userID domain.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipHasVoted {
		return false, nil
	}
	return r.hasVotedLocked(electionID, userID), nil
}

func (r *inMemoryVoteRepo) hasVotedLocked(electionID domain.ElectionID, userID domain.UserID) bool {
	for _, v := range r.rows {
		if v.ElectionID == electionID && v.UserID == userID {
			return true
		}
	}
	return false
}

func (r *inMemoryVoteRepo) RecordBallot(_ context.Context, votes []domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if len(votes) == 0 {
		return nil
	}
	if r.hasVotedLocked(votes[0].ElectionID, votes[0].UserID) {
		return domain.ErrDuplicateBallot
	}
	r.rows = append(r.rows, votes...)
	return nil
}

func (r *inMemoryVoteRepo) ListByElection(_ context.Context, electionID domain.ElectionID) ([]domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Vote
	for _, v := range r.rows {
		if v.ElectionID == electionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *inMemoryVoteRepo) DeleteByElection(_ context.Context, electionID domain.ElectionID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	var removed int64
	for _, v := range r.rows {
		if v.ElectionID == electionID {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	r.rows = kept
	return removed, nil
}

func (r *inMemoryVoteRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type inMemoryProfileRepo struct {
	mu   sync.Mutex
	data map[domain.UserID]domain.VoterProfile
}

func (r *inMemoryProfileRepo) FindByID(_ context.Context, id domain.UserID) (domain.VoterProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.VoterProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *inMemoryProfileRepo) ListVerified(_ context.Context) ([]domain.VoterProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.VoterProfile
	for _, p := range r.data {
		if p.IsVerified {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *inMemoryProfileRepo) Upsert(_ context.Context, p domain.VoterProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

type inMemoryEligibleRepo struct {
	mu   sync.Mutex
	data map[domain.ElectionID]map[domain.UserID]domain.EligibleVoter
}

func (r *inMemoryEligibleRepo) IsListed(_ context.Context, electionID domain.ElectionID, userID domain.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[electionID][userID]
	return ok, nil
}

func (r *inMemoryEligibleRepo) ListByElection(_ context.Context, electionID domain.ElectionID) ([]domain.EligibleVoter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EligibleVoter
	for _, e := range r.data[electionID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *inMemoryEligibleRepo) Add(_ context.Context, entries []domain.EligibleVoter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if r.data[e.ElectionID] == nil {
			r.data[e.ElectionID] = make(map[domain.UserID]domain.EligibleVoter)
		}
		if _, ok := r.data[e.ElectionID][e.UserID]; ok {
			continue
		}
		r.data[e.ElectionID][e.UserID] = e
	}
	return nil
}

func (r *inMemoryEligibleRepo) Remove(_ context.Context, electionID domain.ElectionID, userID domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[electionID][userID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data[electionID], userID)
	return nil
}

type fakeLock struct {
	mu         sync.Mutex
	held       map[string]bool
	releases   int
	err        error
	releaseErr error
}

func (l *fakeLock) Acquire(_ context.Context, electionID domain.ElectionID, userID domain.UserID) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	key := string(electionID) + ":" + string(userID)
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.held[key] = true
	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.releases++
		return l.releaseErr
	}, nil
}

type fakeAntifraude struct {
	err      error
	attempts int
}

func (a *fakeAntifraude) CheckAttempt(_ context.Context, _ domain.ElectionID, _ domain.UserID) error {
	a.attempts++
	return a.err
}

type staticClock struct {
	now time.Time
}

func (s *staticClock) Now() time.Time {
	return s.now
}
