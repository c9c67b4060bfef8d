package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marcelojr/uvote/internal/domain"
)

func (a *API) submitApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	id, _ := IdentityFrom(r.Context())
	app, err := a.service.SubmitApplication(r.Context(), domain.CandidateApplication{
		ElectionID: electionIDParam(r),
		UserID:     id.UserID,
		Name:       req.Name,
		Position:   req.Position,
		Platform:   req.Platform,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, newApplicationResponse(app))
}

func (a *API) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := a.service.ListApplications(r.Context(), electionIDParam(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	out := make([]applicationResponse, len(apps))
	for i, app := range apps {
		out[i] = newApplicationResponse(app)
	}
	responderJSON(w, http.StatusOK, out)
}

func (a *API) reviewApplication(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	id, _ := IdentityFrom(r.Context())
	appID := domain.ApplicationID(chi.URLParam(r, "applicationID"))
	app, err := a.service.ReviewApplication(r.Context(), appID, req.Approve, id.UserID)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, newApplicationResponse(app))
}

func (a *API) listEligibleVoters(w http.ResponseWriter, r *http.Request) {
	voters, err := a.service.ListEligibleVoters(r.Context(), electionIDParam(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	out := make([]eligibleVoterResponse, len(voters))
	for i, v := range voters {
		out[i] = eligibleVoterResponse{UserID: v.UserID, AddedBy: v.AddedBy, CreatedAt: v.CreatedAt}
	}
	responderJSON(w, http.StatusOK, out)
}

func (a *API) addEligibleVoters(w http.ResponseWriter, r *http.Request) {
	var req eligibleVotersRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	users := make([]domain.UserID, 0, len(req.UserIDs))
	for _, u := range req.UserIDs {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, domain.UserID(u))
		}
	}
	if len(users) == 0 {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "user_ids vazio"})
		return
	}

	id, _ := IdentityFrom(r.Context())
	if err := a.service.AddEligibleVoters(r.Context(), electionIDParam(r), users, id.UserID); err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, map[string]any{"added": len(users)})
}

func (a *API) removeEligibleVoter(w http.ResponseWriter, r *http.Request) {
	user := domain.UserID(chi.URLParam(r, "userID"))
	if err := a.service.RemoveEligibleVoter(r.Context(), electionIDParam(r), user); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getMyProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	a.writeProfile(w, r, id.UserID)
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	a.writeProfile(w, r, domain.UserID(chi.URLParam(r, "userID")))
}

func (a *API) writeProfile(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	p, err := a.service.GetProfile(r.Context(), userID)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, newProfileResponse(p))
}

// upsertProfile é a porta de entrada da sincronização com o cadastro acadêmico.
func (a *API) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		responderJSON(w, http.StatusBadRequest, errorResponse{Error: "payload invalido"})
		return
	}

	p, err := a.service.UpsertProfile(r.Context(), domain.VoterProfile{
		ID:         domain.UserID(chi.URLParam(r, "userID")),
		Name:       req.Name,
		Department: req.Department,
		YearLevel:  req.YearLevel,
		StudentID:  req.StudentID,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, newProfileResponse(p))
}
