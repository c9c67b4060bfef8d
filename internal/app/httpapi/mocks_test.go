package httpapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcelojr/uvote/internal/app/eligibility"
	"github.com/marcelojr/uvote/internal/app/voting"
	"github.com/marcelojr/uvote/internal/domain"
)

// MockVotingService implementa VotingService para os testes dos handlers
type MockVotingService struct {
	mock.Mock
}

func (m *MockVotingService) CreateElection(ctx context.Context, e domain.Election, candidates []domain.Candidate) (domain.Election, error) {
	args := m.Called(ctx, e, candidates)
	return args.Get(0).(domain.Election), args.Error(1)
}

func (m *MockVotingService) UpdateElection(ctx context.Context, e domain.Election) (domain.Election, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(domain.Election), args.Error(1)
}

func (m *MockVotingService) CompleteElection(ctx context.Context, id domain.ElectionID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVotingService) DeleteElection(ctx context.Context, id domain.ElectionID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVotingService) ResetVotes(ctx context.Context, id domain.ElectionID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVotingService) GetElection(ctx context.Context, id domain.ElectionID) (domain.Election, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Election), args.Error(1)
}

func (m *MockVotingService) ListElections(ctx context.Context, status domain.ElectionStatus) ([]domain.Election, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Election), args.Error(1)
}

func (m *MockVotingService) CheckEligibility(ctx context.Context, electionID domain.ElectionID, voterID domain.UserID) (eligibility.Decision, error) {
	args := m.Called(ctx, electionID, voterID)
	return args.Get(0).(eligibility.Decision), args.Error(1)
}

func (m *MockVotingService) HasVoted(ctx context.Context, voterID domain.UserID, electionID domain.ElectionID) (bool, error) {
	args := m.Called(ctx, voterID, electionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVotingService) CastBallot(ctx context.Context, req voting.BallotRequest) (voting.Receipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(voting.Receipt), args.Error(1)
}

func (m *MockVotingService) AddCandidate(ctx context.Context, electionID domain.ElectionID, c domain.Candidate) (domain.Candidate, error) {
	args := m.Called(ctx, electionID, c)
	return args.Get(0).(domain.Candidate), args.Error(1)
}

func (m *MockVotingService) ListCandidates(ctx context.Context, electionID domain.ElectionID) ([]domain.Candidate, error) {
	args := m.Called(ctx, electionID)
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockVotingService) SubmitApplication(ctx context.Context, a domain.CandidateApplication) (domain.CandidateApplication, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(domain.CandidateApplication), args.Error(1)
}

func (m *MockVotingService) ListApplications(ctx context.Context, electionID domain.ElectionID) ([]domain.CandidateApplication, error) {
	args := m.Called(ctx, electionID)
	return args.Get(0).([]domain.CandidateApplication), args.Error(1)
}

func (m *MockVotingService) ReviewApplication(ctx context.Context, id domain.ApplicationID, approve bool, reviewer domain.UserID) (domain.CandidateApplication, error) {
	args := m.Called(ctx, id, approve, reviewer)
	return args.Get(0).(domain.CandidateApplication), args.Error(1)
}

func (m *MockVotingService) AddEligibleVoters(ctx context.Context, electionID domain.ElectionID, users []domain.UserID, addedBy domain.UserID) error {
	return m.Called(ctx, electionID, users, addedBy).Error(0)
}

func (m *MockVotingService) RemoveEligibleVoter(ctx context.Context, electionID domain.ElectionID, user domain.UserID) error {
	return m.Called(ctx, electionID, user).Error(0)
}

func (m *MockVotingService) ListEligibleVoters(ctx context.Context, electionID domain.ElectionID) ([]domain.EligibleVoter, error) {
	args := m.Called(ctx, electionID)
	return args.Get(0).([]domain.EligibleVoter), args.Error(1)
}

func (m *MockVotingService) UpsertProfile(ctx context.Context, p domain.VoterProfile) (domain.VoterProfile, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.VoterProfile), args.Error(1)
}

func (m *MockVotingService) GetProfile(ctx context.Context, id domain.UserID) (domain.VoterProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.VoterProfile), args.Error(1)
}

type MockResultsService struct {
	mock.Mock
}

func (m *MockResultsService) ComputeResults(ctx context.Context, electionID domain.ElectionID) (domain.Results, error) {
	args := m.Called(ctx, electionID)
	return args.Get(0).(domain.Results), args.Error(1)
}
