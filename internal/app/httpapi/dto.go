package httpapi

import (
	"strings"
	"time"

	"github.com/marcelojr/uvote/internal/domain"
)

type candidateRequest struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Bio        string `json:"bio"`
	ImageURL   string `json:"image_url"`
	Department string `json:"department"`
	YearLevel  string `json:"year_level"`
	StudentID  string `json:"student_id"`
	UserID     string `json:"user_id"`
}

func (c candidateRequest) toDomain() domain.Candidate {
	return domain.Candidate{
		UserID:     domain.UserID(c.UserID),
		Name:       c.Name,
		Position:   c.Position,
		Bio:        c.Bio,
		ImageURL:   c.ImageURL,
		Department: c.Department,
		YearLevel:  c.YearLevel,
		StudentID:  c.StudentID,
	}
}

// electionRequest aceita os nomes legados das listas de elegibilidade; o mapeamento para Eligibility acontece só aqui.
type electionRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	CandidacyStartDate *time.Time `json:"candidacy_start_date"`
	CandidacyEndDate   *time.Time `json:"candidacy_end_date"`
	Positions          []string   `json:"positions"`

	Eligibility        *domain.Eligibility `json:"eligibility"`
	Departments        []string            `json:"departments"`
	Colleges           []string            `json:"colleges"`
	YearLevels         []string            `json:"year_levels"`
	EligibleYearLevels []string            `json:"eligible_year_levels"`
	LegacyYearLevels   []string            `json:"eligibleYearLevels"`
	RestrictVoting     bool                `json:"restrict_voting"`

	IsPrivate  bool               `json:"is_private"`
	AccessCode string             `json:"access_code"`
	Candidates []candidateRequest `json:"candidates"`
}

func (r electionRequest) eligibility() domain.Eligibility {
	if r.Eligibility != nil {
		return *r.Eligibility
	}
	return domain.Eligibility{
		Departments:    firstNonEmpty(r.Departments, r.Colleges),
		YearLevels:     firstNonEmpty(r.YearLevels, r.EligibleYearLevels, r.LegacyYearLevels),
		RestrictVoting: r.RestrictVoting,
	}
}

func (r electionRequest) toDomain(id domain.ElectionID, createdBy domain.UserID) domain.Election {
	e := domain.Election{
		ID:                 id,
		Title:              r.Title,
		Description:        r.Description,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		CandidacyStartDate: r.CandidacyStartDate,
		CandidacyEndDate:   r.CandidacyEndDate,
		Positions:          r.Positions,
		IsPrivate:          r.IsPrivate,
		AccessCode:         r.AccessCode,
		CreatedBy:          createdBy,
	}
	e.SetEligibility(r.eligibility())
	return e
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

type candidateResponse struct {
	ID         domain.CandidateID `json:"id"`
	ElectionID domain.ElectionID  `json:"election_id"`
	UserID     domain.UserID      `json:"user_id,omitempty"`
	Name       string             `json:"name"`
	Position   string             `json:"position"`
	Bio        string             `json:"bio,omitempty"`
	ImageURL   string             `json:"image_url,omitempty"`
	Department string             `json:"department,omitempty"`
	YearLevel  string             `json:"year_level,omitempty"`
	StudentID  string             `json:"student_id,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func newCandidateResponses(cs []domain.Candidate) []candidateResponse {
	out := make([]candidateResponse, len(cs))
	for i, c := range cs {
		out[i] = candidateResponse{
			ID:         c.ID,
			ElectionID: c.ElectionID,
			UserID:     c.UserID,
			Name:       c.Name,
			Position:   c.Position,
			Bio:        c.Bio,
			ImageURL:   c.ImageURL,
			Department: c.Department,
			YearLevel:  c.YearLevel,
			StudentID:  c.StudentID,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}

type electionResponse struct {
	ID                 domain.ElectionID     `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description,omitempty"`
	StartDate          time.Time             `json:"start_date"`
	EndDate            time.Time             `json:"end_date"`
	CandidacyStartDate *time.Time            `json:"candidacy_start_date,omitempty"`
	CandidacyEndDate   *time.Time            `json:"candidacy_end_date,omitempty"`
	Status             domain.ElectionStatus `json:"status"`
	Positions          []string              `json:"positions"`
	Eligibility        domain.Eligibility    `json:"eligibility"`
	IsPrivate          bool                  `json:"is_private"`
	AccessCode         string                `json:"access_code,omitempty"`
	CreatedBy          domain.UserID         `json:"created_by,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	Candidates         []candidateResponse   `json:"candidates,omitempty"`
}

// newElectionResponse só expõe o código de acesso para administradores.
func newElectionResponse(e domain.Election, admin bool) electionResponse {
	resp := electionResponse{
		ID:                 e.ID,
		Title:              e.Title,
		Description:        e.Description,
		StartDate:          e.StartDate,
		EndDate:            e.EndDate,
		CandidacyStartDate: e.CandidacyStartDate,
		CandidacyEndDate:   e.CandidacyEndDate,
		Status:             e.Status,
		Positions:          nonNilStrings(e.Positions),
		Eligibility:        e.Eligibility(),
		IsPrivate:          e.IsPrivate,
		CreatedAt:          e.CreatedAt,
	}
	resp.Eligibility.Departments = nonNilStrings(resp.Eligibility.Departments)
	resp.Eligibility.YearLevels = nonNilStrings(resp.Eligibility.YearLevels)
	if admin {
		resp.AccessCode = e.AccessCode
		resp.CreatedBy = e.CreatedBy
	}
	if len(e.Candidates) > 0 {
		resp.Candidates = newCandidateResponses(e.Candidates)
	}
	return resp
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type applicationRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Platform string `json:"platform"`
	ImageURL string `json:"image_url"`
}

type applicationResponse struct {
	ID         domain.ApplicationID     `json:"id"`
	ElectionID domain.ElectionID        `json:"election_id"`
	UserID     domain.UserID            `json:"user_id"`
	Name       string                   `json:"name"`
	Position   string                   `json:"position"`
	Platform   string                   `json:"platform,omitempty"`
	ImageURL   string                   `json:"image_url,omitempty"`
	Status     domain.ApplicationStatus `json:"status"`
	ReviewedBy domain.UserID            `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time               `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

func newApplicationResponse(a domain.CandidateApplication) applicationResponse {
	return applicationResponse{
		ID:         a.ID,
		ElectionID: a.ElectionID,
		UserID:     a.UserID,
		Name:       a.Name,
		Position:   a.Position,
		Platform:   a.Platform,
		ImageURL:   a.ImageURL,
		Status:     a.Status,
		ReviewedBy: a.ReviewedBy,
		ReviewedAt: a.ReviewedAt,
		CreatedAt:  a.CreatedAt,
	}
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

type eligibleVotersRequest struct {
	UserIDs []string `json:"user_ids"`
}

type eligibleVoterResponse struct {
	UserID    domain.UserID `json:"user_id"`
	AddedBy   domain.UserID `json:"added_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type profileRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	YearLevel  string `json:"year_level"`
	StudentID  string `json:"student_id"`
	IsVerified bool   `json:"is_verified"`
}

type profileResponse struct {
	ID         domain.UserID `json:"id"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	YearLevel  string        `json:"year_level"`
	StudentID  string        `json:"student_id,omitempty"`
	IsVerified bool          `json:"is_verified"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func newProfileResponse(p domain.VoterProfile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Name:       p.Name,
		Department: p.Department,
		YearLevel:  p.YearLevel,
		StudentID:  p.StudentID,
		IsVerified: p.IsVerified,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ballotRequest: null ou "abstain" em uma posição é abstenção explícita.
type ballotRequest struct {
	Selections map[string]*string `json:"selections"`
}

func (b ballotRequest) selections() map[string]domain.CandidateID {
	out := make(map[string]domain.CandidateID, len(b.Selections))
	for position, choice := range b.Selections {
		if choice == nil || strings.EqualFold(strings.TrimSpace(*choice), string(domain.Abstain)) {
			out[position] = domain.Abstain
			continue
		}
		out[position] = domain.CandidateID(strings.TrimSpace(*choice))
	}
	return out
}

type ballotView struct {
	Election   electionResponse    `json:"election"`
	Positions  []string            `json:"positions"`
	Candidates []candidateResponse `json:"candidates"`
	HasVoted   bool                `json:"has_voted"`
	Eligible   bool                `json:"eligible"`
	Reason     string              `json:"reason,omitempty"`
	CanVoteNow bool                `json:"can_vote_now"`
}
