// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para os serviços de votação e apuração.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marcelojr/uvote/internal/app/eligibility"
	"github.com/marcelojr/uvote/internal/app/results"
	"github.com/marcelojr/uvote/internal/app/voting"
	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/logger"
)

// VotingService é o recorte de *voting.Service usado pelos handlers.
type VotingService interface {
	CreateElection(ctx context.Context, e domain.Election, candidates []domain.Candidate) (domain.Election, error)
	UpdateElection(ctx context.Context, e domain.Election) (domain.Election, error)
	CompleteElection(ctx context.Context, id domain.ElectionID) error
	DeleteElection(ctx context.Context, id domain.ElectionID) error
	ResetVotes(ctx context.Context, id domain.ElectionID) (int64, error)
	GetElection(ctx context.Context, id domain.ElectionID) (domain.Election, error)
	ListElections(ctx context.Context, status domain.ElectionStatus) ([]domain.Election, error)

	CheckEligibility(ctx context.Context, electionID domain.ElectionID, voterID domain.UserID) (eligibility.Decision, error)
	HasVoted(ctx context.Context, voterID domain.UserID, electionID domain.ElectionID) (bool, error)
	CastBallot(ctx context.Context, req voting.BallotRequest) (voting.Receipt, error)

	AddCandidate(ctx context.Context, electionID domain.ElectionID, c domain.Candidate) (domain.Candidate, error)
	ListCandidates(ctx context.Context, electionID domain.ElectionID) ([]domain.Candidate, error)
	SubmitApplication(ctx context.Context, a domain.CandidateApplication) (domain.CandidateApplication, error)
	ListApplications(ctx context.Context, electionID domain.ElectionID) ([]domain.CandidateApplication, error)
	ReviewApplication(ctx context.Context, id domain.ApplicationID, approve bool, reviewer domain.UserID) (domain.CandidateApplication, error)

	AddEligibleVoters(ctx context.Context, electionID domain.ElectionID, users []domain.UserID, addedBy domain.UserID) error
	RemoveEligibleVoter(ctx context.Context, electionID domain.ElectionID, user domain.UserID) error
	ListEligibleVoters(ctx context.Context, electionID domain.ElectionID) ([]domain.EligibleVoter, error)

	UpsertProfile(ctx context.Context, p domain.VoterProfile) (domain.VoterProfile, error)
	GetProfile(ctx context.Context, id domain.UserID) (domain.VoterProfile, error)
}

type ResultsService interface {
	ComputeResults(ctx context.Context, electionID domain.ElectionID) (domain.Results, error)
}

var (
	_ VotingService  = (*voting.Service)(nil)
	_ ResultsService = (*results.Aggregator)(nil)
)

// API empacota handlers HTTP ligados aos serviços, à autenticação e ao logger.
type API struct {
	service VotingService
	results ResultsService
	auth    *Authenticator
	logger  *slog.Logger
	timeout time.Duration
}

func New(service VotingService, results ResultsService, auth *Authenticator, log *slog.Logger, timeout time.Duration) *API {
	if log == nil {
		log = logger.L()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &API{service: service, results: results, auth: auth, logger: log, timeout: timeout}
}

// Routes monta o roteador chi; todas as rotas exigem token e as de administração exigem role=admin.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.timeout))
	r.Use(a.auth.Middleware)

	r.Route("/elections", func(r chi.Router) {
		r.Get("/", a.listElections)
		r.With(RequireAdmin).Post("/", a.createElection)

		r.Route("/{electionID}", func(r chi.Router) {
			r.Get("/", a.getElection)
			r.Get("/candidates", a.listCandidates)
			r.Get("/eligibility", a.checkEligibility)
			r.Get("/ballot", a.getBallot)
			r.Post("/ballot", a.castBallot)
			r.Get("/results", a.getResults)
			r.Post("/applications", a.submitApplication)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Put("/", a.updateElection)
				r.Delete("/", a.deleteElection)
				r.Post("/complete", a.completeElection)
				r.Delete("/votes", a.resetVotes)
				r.Post("/candidates", a.addCandidate)
				r.Get("/applications", a.listApplications)
				r.Get("/eligible-voters", a.listEligibleVoters)
				r.Post("/eligible-voters", a.addEligibleVoters)
				r.Delete("/eligible-voters/{userID}", a.removeEligibleVoter)
			})
		})
	})

	r.With(RequireAdmin).Post("/applications/{applicationID}/review", a.reviewApplication)

	r.Get("/me/profile", a.getMyProfile)
	r.Route("/profiles/{userID}", func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/", a.getProfile)
		r.Put("/", a.upsertProfile)
	})

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func electionIDParam(r *http.Request) domain.ElectionID {
	return domain.ElectionID(chi.URLParam(r, "electionID"))
}

// requireConfirm protege operações destrutivas contra chamadas acidentais.
func requireConfirm(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") == "true" {
		return true
	}
	responderJSON(w, http.StatusBadRequest, errorResponse{Error: "operacao destrutiva exige ?confirm=true"})
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorResponse struct {
	Error      string   `json:"error"`
	Reason     string   `json:"reason,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Unknown    []string `json:"unknown,omitempty"`
	Invalid    []string `json:"invalid_candidates,omitempty"`
	Duplicated []string `json:"duplicated,omitempty"`
	Retryable  bool     `json:"retryable,omitempty"`
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func responderErro(w http.ResponseWriter, err error) {
	status := statusCode(err)
	body := errorResponse{Error: err.Error()}

	var verr *voting.BallotValidationError
	var ierr *voting.IneligibleError
	switch {
	case errors.As(err, &verr):
		body.Missing = verr.Missing
		body.Unknown = verr.Unknown
		body.Invalid = verr.InvalidCandidates
		body.Duplicated = verr.Duplicated
	case errors.As(err, &ierr):
		body.Reason = ierr.Reason
	}
	if status == http.StatusInternalServerError {
		// Falha transitória: a cédula não foi gravada e o cliente pode tentar de novo.
		body.Error = "erro interno"
		body.Retryable = true
	}

	responderJSON(w, status, body)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, voting.ErrElectionInvalid),
		errors.Is(err, voting.ErrInvalidBallot),
		errors.Is(err, voting.ErrCandidateInvalid),
		errors.Is(err, voting.ErrProfileInvalid):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrNotEligible),
		errors.Is(err, voting.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, voting.ErrVotingClosed),
		errors.Is(err, voting.ErrAlreadyVoted),
		errors.Is(err, voting.ErrBallotInProgress),
		errors.Is(err, voting.ErrApplicationClosed),
		errors.Is(err, voting.ErrApplicationReviewed),
		errors.Is(err, voting.ErrApplicationExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, voting.ErrElectionNotFound),
		errors.Is(err, voting.ErrApplicationNotFound),
		errors.Is(err, voting.ErrProfileNotFound),
		errors.Is(err, results.ErrElectionNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ballotStatus é o rótulo da métrica uvote_ballot_requests_total.
func ballotStatus(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, voting.ErrAlreadyVoted):
		return "duplicate"
	case errors.Is(err, voting.ErrBallotInProgress):
		return "in_progress"
	case errors.Is(err, voting.ErrVotingClosed):
		return "closed"
	case errors.Is(err, voting.ErrNotEligible), errors.Is(err, voting.ErrAccessDenied):
		return "forbidden"
	case errors.Is(err, voting.ErrInvalidBallot):
		return "invalid"
	case errors.Is(err, voting.ErrElectionNotFound):
		return "not_found"
	default:
		return "error"
	}
}
