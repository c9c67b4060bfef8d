package voting

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/uvote/internal/app/eligibility"
	"github.com/marcelojr/uvote/internal/domain"
)

type ballotFixture struct {
	deps      serviceDependencies
	svc       *Service
	election  domain.Election
	byName    map[string]domain.CandidateID
	voterID   domain.UserID
	ctx       context.Context
	positions []string
}

// newBallotFixture cria a eleição ativa com President (P1, P2) e Secretary (S1) e um eleitor verificado de CS.
func newBallotFixture(t *testing.T, mutate func(*domain.Election)) ballotFixture {
	t.Helper()
	deps := newServiceDeps()
	svc := deps.service()
	ctx := context.Background()

	e := domain.Election{
		Title:       "Student Council",
		StartDate:   deps.baseTime.Add(-time.Hour),
		EndDate:     deps.baseTime.Add(24 * time.Hour),
		Positions:   []string{"President", "Secretary"},
		Departments: []string{"CS"},
		YearLevels:  []string{domain.AllYearLevels},
		CreatedBy:   "admin",
	}
	if mutate != nil {
		mutate(&e)
	}
	created, err := svc.CreateElection(ctx, e, []domain.Candidate{
		{Name: "P1", Position: "President"},
		{Name: "P2", Position: "president"},
		{Name: "S1", Position: "Secretary"},
	})
	require.NoError(t, err)

	byName := make(map[string]domain.CandidateID)
	for _, c := range created.Candidates {
		byName[c.Name] = c.ID
	}

	_, err = svc.UpsertProfile(ctx, domain.VoterProfile{ID: "V", Name: "Vera", Department: "CS", YearLevel: "2nd Year", IsVerified: true})
	require.NoError(t, err)

	return ballotFixture{
		deps:      deps,
		svc:       svc,
		election:  created,
		byName:    byName,
		voterID:   "V",
		ctx:       ctx,
		positions: created.Positions,
	}
}

func (f ballotFixture) request(selections map[string]domain.CandidateID) BallotRequest {
	return BallotRequest{ElectionID: f.election.ID, VoterID: f.voterID, Selections: selections}
}

func TestCastBallot_ComAbstencao_DeveGravarLinhaPorCargoEMarcador(t *testing.T) {
	f := newBallotFixture(t, nil)

	receipt, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Positions)
	assert.Equal(t, 1, receipt.Abstained)
	assert.Equal(t, f.deps.baseTime, receipt.CastAt)

	rows, err := f.deps.votes.ListByElection(f.ctx, f.election.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var concrete, abstentions, markers int
	for _, v := range rows {
		assert.Equal(t, f.voterID, v.UserID)
		switch {
		case v.IsCompletionMarker():
			markers++
		case v.IsAbstention():
			abstentions++
			assert.Equal(t, "Secretary", *v.Position)
		default:
			concrete++
			assert.Equal(t, "President", *v.Position)
			assert.Equal(t, f.byName["P1"], *v.CandidateID)
		}
	}
	assert.Equal(t, 1, concrete)
	assert.Equal(t, 1, abstentions)
	assert.Equal(t, 1, markers)
	assert.Equal(t, 1, f.deps.lock.releases, "trava liberada ao final")

	voted, err := f.svc.HasVoted(f.ctx, f.voterID, f.election.ID)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestCastBallot_SegundaTentativa_DeveRetornarAlreadyVotedSemGravar(t *testing.T) {
	f := newBallotFixture(t, nil)
	req := f.request(map[string]domain.CandidateID{
		"President": f.byName["P2"],
		"Secretary": f.byName["S1"],
	})

	_, err := f.svc.CastBallot(f.ctx, req)
	require.NoError(t, err)
	before := f.deps.votes.count()

	_, err = f.svc.CastBallot(f.ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, "already voted", err.Error())
	assert.Equal(t, before, f.deps.votes.count())
}

func TestCastBallot_QuandoChecagemPreviaPerdeCorrida_IndiceDeveBarrar(t *testing.T) {
	f := newBallotFixture(t, nil)
	req := f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": f.byName["S1"],
	})
	_, err := f.svc.CastBallot(f.ctx, req)
	require.NoError(t, err)

	f.deps.votes.skipHasVoted = true
	_, err = f.svc.CastBallot(f.ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, 3, f.deps.votes.count())
}

func TestCastBallot_ForaDaJanela_DeveRetornarVotingClosed(t *testing.T) {
	cases := map[string]func(*domain.Election){
		"antes do inicio": func(e *domain.Election) {
			e.StartDate = e.StartDate.Add(48 * time.Hour)
			e.EndDate = e.EndDate.Add(48 * time.Hour)
		},
		"depois do fim": func(e *domain.Election) {
			e.StartDate = e.StartDate.Add(-72 * time.Hour)
			e.EndDate = e.StartDate.Add(time.Hour)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newBallotFixture(t, mutate)
			_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
				"President": f.byName["P1"],
				"Secretary": domain.Abstain,
			}))
			assert.ErrorIs(t, err, ErrVotingClosed)
			assert.Zero(t, f.deps.votes.count())
		})
	}
}

func TestCastBallot_EleicaoEncerradaManualmente_DeveRetornarVotingClosed(t *testing.T) {
	f := newBallotFixture(t, nil)
	require.NoError(t, f.svc.CompleteElection(f.ctx, f.election.ID))

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestCastBallot_CargoFaltando_DeveNomearCargo(t *testing.T) {
	f := newBallotFixture(t, nil)

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBallot)

	var verr *BallotValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Secretary"}, verr.Missing)
	assert.Contains(t, err.Error(), "Secretary")
	assert.Zero(t, f.deps.votes.count())
}

func TestCastBallot_CandidatoDeOutroCargoECargoDesconhecido_DevemSerRejeitados(t *testing.T) {
	f := newBallotFixture(t, nil)

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["S1"],
		"Secretary": domain.Abstain,
		"Treasurer": f.byName["P1"],
	}))

	var verr *BallotValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Treasurer"}, verr.Unknown)
	require.Len(t, verr.InvalidCandidates, 1)
	assert.Contains(t, verr.InvalidCandidates[0], "President")
	assert.Empty(t, verr.Missing)
}

func TestCastBallot_CargoSemDiferenciarMaiusculas_DeveSerAceito(t *testing.T) {
	f := newBallotFixture(t, nil)

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		" president ": f.byName["P1"],
		"SECRETARY":   domain.Abstain,
	}))
	require.NoError(t, err)
}

func TestCastBallot_MesmoCargoEmDuasChaves_DeveSerRejeitado(t *testing.T) {
	// Repetido para que a ordem aleatória do map não deixe passar nenhuma combinação.
	for i := 0; i < 20; i++ {
		f := newBallotFixture(t, nil)

		_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
			"President": f.byName["P1"],
			"president": f.byName["P2"],
			"Secretary": domain.Abstain,
		}))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidBallot)

		var verr *BallotValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{"President"}, verr.Duplicated)
		assert.Empty(t, verr.Missing)
		assert.Contains(t, err.Error(), "duplicated positions: President")
		assert.Zero(t, f.deps.votes.count())
	}
}

func TestCastBallot_Inelegivel_DeveRetornarMotivo(t *testing.T) {
	f := newBallotFixture(t, nil)
	_, err := f.svc.UpsertProfile(f.ctx, domain.VoterProfile{ID: "EEV", Department: "EE", IsVerified: true})
	require.NoError(t, err)

	req := f.request(map[string]domain.CandidateID{"President": f.byName["P1"], "Secretary": domain.Abstain})
	req.VoterID = "EEV"
	_, err = f.svc.CastBallot(f.ctx, req)

	assert.ErrorIs(t, err, ErrNotEligible)
	var ierr *IneligibleError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, eligibility.ReasonDepartmentNotAllowed, ierr.Reason)
	assert.Zero(t, f.deps.antifraude.attempts, "inelegível não consome tentativa")
}

func TestCastBallot_SemPerfil_DeveSerTratadoComoNaoVerificado(t *testing.T) {
	f := newBallotFixture(t, nil)

	req := f.request(map[string]domain.CandidateID{"President": f.byName["P1"], "Secretary": domain.Abstain})
	req.VoterID = "desconhecido"
	_, err := f.svc.CastBallot(f.ctx, req)

	var ierr *IneligibleError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, eligibility.ReasonNotVerified, ierr.Reason)
}

func TestCastBallot_ListaRestrita_DeveExigirAutorizacao(t *testing.T) {
	f := newBallotFixture(t, func(e *domain.Election) { e.RestrictVoting = true })
	req := f.request(map[string]domain.CandidateID{"President": f.byName["P1"], "Secretary": domain.Abstain})

	_, err := f.svc.CastBallot(f.ctx, req)
	var ierr *IneligibleError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, eligibility.ReasonNotOnList, ierr.Reason)

	require.NoError(t, f.svc.AddEligibleVoters(f.ctx, f.election.ID, []domain.UserID{f.voterID, " ", f.voterID}, "admin"))
	_, err = f.svc.CastBallot(f.ctx, req)
	require.NoError(t, err)
}

func TestCastBallot_EleicaoPrivada_DeveValidarCodigo(t *testing.T) {
	f := newBallotFixture(t, func(e *domain.Election) {
		e.IsPrivate = true
		e.AccessCode = "abc123"
	})
	req := f.request(map[string]domain.CandidateID{"President": f.byName["P1"], "Secretary": domain.Abstain})

	req.AccessCode = "errado"
	_, err := f.svc.CastBallot(f.ctx, req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	req.AccessCode = ""
	_, err = f.svc.CastBallot(f.ctx, req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	req.AccessCode = "abc123"
	_, err = f.svc.CastBallot(f.ctx, req)
	require.NoError(t, err)
}

func TestCastBallot_TravaOcupada_DeveRetornarBallotInProgress(t *testing.T) {
	f := newBallotFixture(t, nil)
	release, err := f.deps.lock.Acquire(f.ctx, f.election.ID, f.voterID)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	assert.ErrorIs(t, err, ErrBallotInProgress)
	assert.Zero(t, f.deps.votes.count())
}

func TestCastBallot_FalhaAoLiberarTrava_DeveRegistrarNoLog(t *testing.T) {
	f := newBallotFixture(t, nil)
	var buf bytes.Buffer
	svc := f.deps.serviceWithLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	f.deps.lock.releaseErr = errors.New("redis fora do ar")

	_, err := svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "falha ao liberar trava da cedula")
	assert.Contains(t, out, "redis fora do ar")
	assert.Contains(t, out, "voter=V")
	assert.Contains(t, out, "election="+string(f.election.ID))
}

func TestCastBallot_RateLimit_DevePropagarErro(t *testing.T) {
	f := newBallotFixture(t, nil)
	f.deps.antifraude.err = domain.ErrRateLimited

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, isRejection(err))
}

func TestCastBallot_FalhaDeEscrita_DeveSerRetornadaSemGravar(t *testing.T) {
	f := newBallotFixture(t, nil)
	f.deps.votes.failWrite = errors.New("conexao perdida")

	_, err := f.svc.CastBallot(f.ctx, f.request(map[string]domain.CandidateID{
		"President": f.byName["P1"],
		"Secretary": domain.Abstain,
	}))
	require.Error(t, err)
	assert.False(t, isRejection(err))
	assert.Contains(t, err.Error(), "conexao perdida")

	voted, err := f.svc.HasVoted(f.ctx, f.voterID, f.election.ID)
	require.NoError(t, err)
	assert.False(t, voted, "cedula nao conta como registrada")
	assert.Equal(t, 1, f.deps.lock.releases)
}

func TestCastBallot_EleicaoInexistenteOuSemEleitor(t *testing.T) {
	f := newBallotFixture(t, nil)

	_, err := f.svc.CastBallot(f.ctx, BallotRequest{ElectionID: "nada", VoterID: f.voterID})
	assert.ErrorIs(t, err, ErrElectionNotFound)

	_, err = f.svc.CastBallot(f.ctx, BallotRequest{ElectionID: f.election.ID})
	assert.ErrorIs(t, err, ErrInvalidBallot)
}

func TestCastBallot_SemListaDeCargos_DeveUsarCargosDosCandidatos(t *testing.T) {
	deps := newServiceDeps()
	svc := deps.service()
	ctx := context.Background()

	e, err := svc.CreateElection(ctx, domain.Election{
		Title:     "Clube de xadrez",
		StartDate: deps.baseTime.Add(-time.Hour),
		EndDate:   deps.baseTime.Add(time.Hour),
	}, []domain.Candidate{{Name: "A", Position: "Captain"}, {Name: "B", Position: "Coach"}})
	require.NoError(t, err)
	_, err = svc.UpsertProfile(ctx, domain.VoterProfile{ID: "V", IsVerified: true})
	require.NoError(t, err)

	_, err = svc.CastBallot(ctx, BallotRequest{ElectionID: e.ID, VoterID: "V", Selections: map[string]domain.CandidateID{
		"Captain": e.Candidates[0].ID,
	}})
	var verr *BallotValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Coach"}, verr.Missing)
}

func TestCheckEligibility_DeveReavaliarACadaChamada(t *testing.T) {
	f := newBallotFixture(t, nil)

	d, err := f.svc.CheckEligibility(f.ctx, f.election.ID, f.voterID)
	require.NoError(t, err)
	assert.True(t, d.Eligible)

	_, err = f.svc.UpsertProfile(f.ctx, domain.VoterProfile{ID: f.voterID, Department: "EE", IsVerified: true})
	require.NoError(t, err)

	d, err = f.svc.CheckEligibility(f.ctx, f.election.ID, f.voterID)
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, eligibility.ReasonDepartmentNotAllowed, d.Reason)
}

func TestCanAccess(t *testing.T) {
	assert.True(t, CanAccess(domain.Election{}, ""))
	assert.False(t, CanAccess(domain.Election{IsPrivate: true}, ""))
	assert.False(t, CanAccess(domain.Election{IsPrivate: true, AccessCode: "x"}, "y"))
	assert.True(t, CanAccess(domain.Election{IsPrivate: true, AccessCode: "x"}, "x"))
}
