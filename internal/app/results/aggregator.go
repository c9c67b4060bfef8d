// Pacote results apura as parciais e o resultado final a partir das linhas de voto gravadas.
// Nada é cacheado: cada chamada relê votos, candidatos e a população de eleitores.
package results

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/marcelojr/uvote/internal/app/eligibility"
	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/metrics"
)

var ErrElectionNotFound = errors.New("eleicao nao encontrada")

type Aggregator struct {
	elections      domain.ElectionRepository
	candidates     domain.CandidateRepository
	votes          domain.VoteRepository
	profiles       domain.ProfileRepository
	eligibleVoters domain.EligibleVoterRepository
	clock          domain.Clock
}

func NewAggregator(
	elections domain.ElectionRepository,
	candidates domain.CandidateRepository,
	votes domain.VoteRepository,
	profiles domain.ProfileRepository,
	eligibleVoters domain.EligibleVoterRepository,
	clock domain.Clock,
) *Aggregator {
	return &Aggregator{
		elections:      elections,
		candidates:     candidates,
		votes:          votes,
		profiles:       profiles,
		eligibleVoters: eligibleVoters,
		clock:          clock,
	}
}

func (a *Aggregator) ComputeResults(ctx context.Context, electionID domain.ElectionID) (domain.Results, error) {
	election, err := a.elections.FindByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Results{}, ErrElectionNotFound
		}
		return domain.Results{}, err
	}

	candidates, err := a.candidates.ListByElection(ctx, electionID)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: listar candidatos: %w", err)
	}
	votes, err := a.votes.ListByElection(ctx, electionID)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: listar votos: %w", err)
	}
	eligibleCount, err := a.countEligible(ctx, election)
	if err != nil {
		return domain.Results{}, err
	}

	status := election.EffectiveStatus(a.clock.Now())
	res := Tally(election, candidates, votes)
	res.Status = status
	res.Final = status == domain.StatusCompleted
	res.EligibleVoters = eligibleCount
	res.ParticipationRate = percentage(res.BallotsCast, eligibleCount)

	metrics.IncResultsComputed(string(status))
	return res, nil
}

// countEligible recalcula o denominador com o avaliador sobre os perfis verificados atuais.
func (a *Aggregator) countEligible(ctx context.Context, election domain.Election) (int64, error) {
	profiles, err := a.profiles.ListVerified(ctx)
	if err != nil {
		return 0, fmt.Errorf("results: listar perfis: %w", err)
	}

	var allowed eligibility.AllowList
	if election.RestrictVoting {
		entries, err := a.eligibleVoters.ListByElection(ctx, election.ID)
		if err != nil {
			return 0, fmt.Errorf("results: listar autorizados: %w", err)
		}
		allowed = eligibility.NewAllowList(entries)
	}

	return eligibility.CountEligible(profiles, election.Eligibility(), allowed), nil
}

// Tally agrega as linhas de voto por cargo. TotalVotes soma apenas votos em candidatos do próprio cargo,
// então a soma dos candidatos sempre fecha com o total. Abstenção só conta para cargos que estavam na cédula:
// linhas explícitas (cargo, nulo) ou cédulas antigas que têm apenas o marcador.
func Tally(election domain.Election, candidates []domain.Candidate, votes []domain.Vote) domain.Results {
	ordered := append([]domain.Candidate(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	voters := make(map[domain.UserID]struct{})
	answered := make(map[domain.UserID]struct{})
	perCandidate := make(map[domain.CandidateID]int64)
	abstentions := make(map[string]int64)
	for _, v := range votes {
		if v.IsCompletionMarker() {
			voters[v.UserID] = struct{}{}
			continue
		}
		answered[v.UserID] = struct{}{}
		switch {
		case v.CandidateID != nil:
			perCandidate[*v.CandidateID]++
		case v.Position != nil:
			abstentions[key(*v.Position)]++
		}
	}
	ballots := int64(len(voters))

	var markerOnly int64
	for voter := range voters {
		if _, ok := answered[voter]; !ok {
			markerOnly++
		}
	}

	positions := domain.BallotPositions(election, ordered)
	onBallot := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		onBallot[key(p)] = struct{}{}
	}
	// Candidatos com cargo fora da lista da eleição também aparecem no resultado.
	known := maps.Clone(onBallot)
	for _, c := range ordered {
		if _, ok := known[key(c.Position)]; !ok {
			known[key(c.Position)] = struct{}{}
			positions = append(positions, c.Position)
		}
	}

	res := domain.Results{
		ElectionID:  election.ID,
		BallotsCast: ballots,
		Positions:   make([]domain.PositionResult, 0, len(positions)),
	}
	for _, p := range positions {
		pr := domain.PositionResult{Position: p, Candidates: []domain.CandidateResult{}}
		for _, c := range ordered {
			if key(c.Position) != key(p) {
				continue
			}
			n := perCandidate[c.ID]
			pr.TotalVotes += n
			pr.Candidates = append(pr.Candidates, domain.CandidateResult{
				CandidateID: c.ID,
				Name:        c.Name,
				Votes:       n,
			})
		}
		for i := range pr.Candidates {
			pr.Candidates[i].Percentage = percentage(pr.Candidates[i].Votes, pr.TotalVotes)
		}
		pr.AbstainCount = abstentions[key(p)]
		if _, ok := onBallot[key(p)]; ok {
			pr.AbstainCount += markerOnly
		}
		res.Positions = append(res.Positions, pr)
	}
	return res
}

func percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func key(position string) string {
	return strings.ToLower(strings.TrimSpace(position))
}
