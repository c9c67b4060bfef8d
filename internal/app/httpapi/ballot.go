package httpapi

import (
	"net/http"

	"github.com/marcelojr/uvote/internal/app/voting"
	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/metrics"
)

func (a *API) checkEligibility(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	decision, err := a.service.CheckEligibility(r.Context(), electionIDParam(r), id.UserID)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, decision)
}

// getBallot monta o que o cliente precisa para exibir a cédula do eleitor autenticado.
func (a *API) getBallot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)
	electionID := electionIDParam(r)

	e, err := a.service.GetElection(ctx, electionID)
	if err != nil {
		responderErro(w, err)
		return
	}
	// Admin pode ver a cédula sem código, mas o voto exige o código para todos.
	canAccess := voting.CanAccess(e, accessCode(r))
	if !id.Admin && !canAccess {
		responderErro(w, voting.ErrAccessDenied)
		return
	}

	candidates, err := a.service.ListCandidates(ctx, electionID)
	if err != nil {
		responderErro(w, err)
		return
	}
	voted, err := a.service.HasVoted(ctx, id.UserID, electionID)
	if err != nil {
		responderErro(w, err)
		return
	}
	decision, err := a.service.CheckEligibility(ctx, electionID, id.UserID)
	if err != nil {
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, ballotView{
		Election:   newElectionResponse(e, id.Admin),
		Positions:  nonNilStrings(domain.BallotPositions(e, candidates)),
		Candidates: newCandidateResponses(candidates),
		HasVoted:   voted,
		Eligible:   decision.Eligible,
		Reason:     decision.Reason,
		CanVoteNow: canAccess && decision.Eligible && !voted && e.Status == domain.StatusActive,
	})
}

func (a *API) castBallot(w http.ResponseWriter, r *http.Request) {
	var req ballotRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.ObserveBallotRequest("invalid")
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	id, _ := IdentityFrom(r.Context())
	receipt, err := a.service.CastBallot(r.Context(), voting.BallotRequest{
		ElectionID: electionIDParam(r),
		VoterID:    id.UserID,
		Selections: req.selections(),
		AccessCode: accessCode(r),
	})
	metrics.ObserveBallotRequest(ballotStatus(err))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, receipt)
}
