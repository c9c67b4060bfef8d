package httpapi

import (
	"net/http"

	"github.com/marcelojr/uvote/internal/app/voting"
	"github.com/marcelojr/uvote/internal/domain"
)

func (a *API) listElections(w http.ResponseWriter, r *http.Request) {
	status := domain.ElectionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "status invalido"})
		return
	}

	elections, err := a.service.ListElections(r.Context(), status)
	if err != nil {
		responderErro(w, err)
		return
	}

	id, _ := IdentityFrom(r.Context())
	out := make([]electionResponse, len(elections))
	for i, e := range elections {
		out[i] = newElectionResponse(e, id.Admin)
	}
	responderJSON(w, http.StatusOK, out)
}

func (a *API) createElection(w http.ResponseWriter, r *http.Request) {
	var req electionRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	id, _ := IdentityFrom(r.Context())
	candidates := make([]domain.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = c.toDomain()
	}

	created, err := a.service.CreateElection(r.Context(), req.toDomain("", id.UserID), candidates)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, newElectionResponse(created, true))
}

func (a *API) getElection(w http.ResponseWriter, r *http.Request) {
	e, err := a.service.GetElection(r.Context(), electionIDParam(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	id, _ := IdentityFrom(r.Context())
	responderJSON(w, http.StatusOK, newElectionResponse(e, id.Admin))
}

func (a *API) updateElection(w http.ResponseWriter, r *http.Request) {
	var req electionRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}
	if len(req.Candidates) > 0 {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "candidatos sao cadastrados em /candidates"})
		return
	}

	updated, err := a.service.UpdateElection(r.Context(), req.toDomain(electionIDParam(r), ""))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, newElectionResponse(updated, true))
}

func (a *API) deleteElection(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	if err := a.service.DeleteElection(r.Context(), electionIDParam(r)); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) completeElection(w http.ResponseWriter, r *http.Request) {
	electionID := electionIDParam(r)
	if err := a.service.CompleteElection(r.Context(), electionID); err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]any{"election_id": electionID, "status": domain.StatusCompleted})
}

func (a *API) resetVotes(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	electionID := electionIDParam(r)
	removed, err := a.service.ResetVotes(r.Context(), electionID)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]any{"election_id": electionID, "removed": removed})
}

func (a *API) listCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := a.service.ListCandidates(r.Context(), electionIDParam(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, newCandidateResponses(candidates))
}

func (a *API) addCandidate(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}
	c, err := a.service.AddCandidate(r.Context(), electionIDParam(r), req.toDomain())
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, newCandidateResponses([]domain.Candidate{c})[0])
}

// getResults recalcula a apuração a cada chamada; eleições privadas exigem o código para não administradores.
func (a *API) getResults(w http.ResponseWriter, r *http.Request) {
	electionID := electionIDParam(r)
	if !a.authorizeAccess(w, r, electionID) {
		return
	}

	res, err := a.results.ComputeResults(r.Context(), electionID)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, res)
}

// authorizeAccess carrega a eleição e confere o cabeçalho X-Access-Code; administradores passam direto.
func (a *API) authorizeAccess(w http.ResponseWriter, r *http.Request, electionID domain.ElectionID) bool {
	id, _ := IdentityFrom(r.Context())
	if id.Admin {
		return true
	}
	e, err := a.service.GetElection(r.Context(), electionID)
	if err != nil {
		responderErro(w, err)
		return false
	}
	if !voting.CanAccess(e, accessCode(r)) {
		responderErro(w, voting.ErrAccessDenied)
		return false
	}
	return true
}

func accessCode(r *http.Request) string {
	return r.Header.Get("X-Access-Code")
}
