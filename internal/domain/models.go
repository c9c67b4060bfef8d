package domain

import (
	"strings"
	"time"
)

type (
	ElectionID    string
	CandidateID   string
	ApplicationID string
	VoteID        string
	UserID        string
)

type ElectionStatus string

const (
	StatusUpcoming  ElectionStatus = "upcoming"
	StatusActive    ElectionStatus = "active"
	StatusCompleted ElectionStatus = "completed"
)

func (s ElectionStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Sentinelas que significam "sem restrição" nas listas de elegibilidade.
const (
	AllDepartments = "University-wide"
	AllYearLevels  = "All Year Levels"
)

// Abstain marca, na cédula, a escolha explícita de não votar em um cargo.
const Abstain CandidateID = "abstain"

// Eligibility é a forma canônica das restrições de voto; aliases legados são mapeados na borda HTTP.
type Eligibility struct {
	Departments    []string `json:"departments"`
	YearLevels     []string `json:"year_levels"`
	RestrictVoting bool     `json:"restrict_voting"`
}

type Election struct {
	ID                 ElectionID     `gorm:"column:id;type:char(26);primaryKey"`
	Title              string         `gorm:"column:title;type:text;not null"`
	Description        string         `gorm:"column:description;type:text"`
	StartDate          time.Time      `gorm:"column:start_date;not null"`
	EndDate            time.Time      `gorm:"column:end_date;not null"`
	CandidacyStartDate *time.Time     `gorm:"column:candidacy_start_date"`
	CandidacyEndDate   *time.Time     `gorm:"column:candidacy_end_date"`
	Status             ElectionStatus `gorm:"column:status;type:varchar(16);not null;default:upcoming;index"`
	Positions          []string       `gorm:"column:positions;type:text;serializer:json"`
	Departments        []string       `gorm:"column:departments;type:text;serializer:json"`
	YearLevels         []string       `gorm:"column:year_levels;type:text;serializer:json"`
	RestrictVoting     bool           `gorm:"column:restrict_voting;not null;default:false"`
	IsPrivate          bool           `gorm:"column:is_private;not null;default:false"`
	AccessCode         string         `gorm:"column:access_code;type:text"`
	CreatedBy          UserID         `gorm:"column:created_by;type:text"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	Candidates         []Candidate    `gorm:"foreignKey:ElectionID;constraint:OnDelete:CASCADE"`
}

func (e Election) Eligibility() Eligibility {
	return Eligibility{
		Departments:    e.Departments,
		YearLevels:     e.YearLevels,
		RestrictVoting: e.RestrictVoting,
	}
}

func (e *Election) SetEligibility(el Eligibility) {
	e.Departments = el.Departments
	e.YearLevels = el.YearLevels
	e.RestrictVoting = el.RestrictVoting
}

// EffectiveStatus combina o status gravado com a janela de votação.
// "completed" gravado é definitivo: o administrador pode encerrar antes do fim.
func (e Election) EffectiveStatus(now time.Time) ElectionStatus {
	if e.Status == StatusCompleted {
		return StatusCompleted
	}
	switch {
	case now.Before(e.StartDate):
		return StatusUpcoming
	case now.After(e.EndDate):
		return StatusCompleted
	default:
		return StatusActive
	}
}

// CandidacyOpen informa se a janela de candidatura está aberta; sem janela definida, vale até o início da votação.
func (e Election) CandidacyOpen(now time.Time) bool {
	if e.CandidacyStartDate != nil && now.Before(*e.CandidacyStartDate) {
		return false
	}
	if e.CandidacyEndDate != nil {
		return !now.After(*e.CandidacyEndDate)
	}
	return now.Before(e.StartDate)
}

func (e Election) HasPosition(position string) bool {
	for _, p := range e.Positions {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(position)) {
			return true
		}
	}
	return false
}

type Candidate struct {
	ID         CandidateID `gorm:"column:id;type:char(26);primaryKey"`
	ElectionID ElectionID  `gorm:"column:election_id;type:char(26);not null;index"`
	UserID     UserID      `gorm:"column:user_id;type:text"`
	Name       string      `gorm:"column:name;type:text;not null"`
	Position   string      `gorm:"column:position;type:text;not null"`
	Bio        string      `gorm:"column:bio;type:text"`
	ImageURL   string      `gorm:"column:image_url;type:text"`
	Department string      `gorm:"column:department;type:text"`
	YearLevel  string      `gorm:"column:year_level;type:text"`
	StudentID  string      `gorm:"column:student_id;type:text"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
}

type CandidateApplication struct {
	ID         ApplicationID     `gorm:"column:id;type:char(26);primaryKey"`
	ElectionID ElectionID        `gorm:"column:election_id;type:char(26);not null;index"`
	UserID     UserID            `gorm:"column:user_id;type:text;not null"`
	Name       string            `gorm:"column:name;type:text;not null"`
	Position   string            `gorm:"column:position;type:text;not null"`
	Platform   string            `gorm:"column:platform;type:text"`
	ImageURL   string            `gorm:"column:image_url;type:text"`
	Status     ApplicationStatus `gorm:"column:status;type:varchar(16);not null;default:pending"`
	ReviewedBy UserID            `gorm:"column:reviewed_by;type:text"`
	ReviewedAt *time.Time        `gorm:"column:reviewed_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

type VoterProfile struct {
	ID         UserID    `gorm:"column:id;type:text;primaryKey"`
	Name       string    `gorm:"column:name;type:text"`
	Department string    `gorm:"column:department;type:text"`
	YearLevel  string    `gorm:"column:year_level;type:text"`
	StudentID  string    `gorm:"column:student_id;type:text"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Vote usa codificação de três estados:
// (Position, CandidateID) é voto concreto, (Position, nil) é abstenção explícita
// e (nil, nil) é o marcador de cédula concluída.
type Vote struct {
	ID          VoteID       `gorm:"column:id;type:char(26);primaryKey"`
	ElectionID  ElectionID   `gorm:"column:election_id;type:char(26);not null;index:idx_votes_election"`
	UserID      UserID       `gorm:"column:user_id;type:text;not null"`
	Position    *string      `gorm:"column:position;type:text"`
	CandidateID *CandidateID `gorm:"column:candidate_id;type:char(26)"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (v Vote) IsCompletionMarker() bool {
	return v.Position == nil && v.CandidateID == nil
}

func (v Vote) IsAbstention() bool {
	return v.Position != nil && v.CandidateID == nil
}

type EligibleVoter struct {
	ElectionID ElectionID `gorm:"column:election_id;type:char(26);primaryKey"`
	UserID     UserID     `gorm:"column:user_id;type:text;primaryKey"`
	AddedBy    UserID     `gorm:"column:added_by;type:text"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

type CandidateResult struct {
	CandidateID CandidateID `json:"candidate_id"`
	Name        string      `json:"name"`
	Votes       int64       `json:"votes"`
	Percentage  float64     `json:"percentage"`
}

type PositionResult struct {
	Position     string            `json:"position"`
	TotalVotes   int64             `json:"total_votes"`
	AbstainCount int64             `json:"abstain_count"`
	Candidates   []CandidateResult `json:"candidates"`
}

type Results struct {
	ElectionID        ElectionID       `json:"election_id"`
	Status            ElectionStatus   `json:"status"`
	Final             bool             `json:"final"`
	BallotsCast       int64            `json:"ballots_cast"`
	EligibleVoters    int64            `json:"eligible_voters"`
	ParticipationRate float64          `json:"participation_rate"`
	Positions         []PositionResult `json:"positions"`
}

// BallotPositions devolve os cargos em disputa: os da eleição ou, na falta deles, os dos candidatos em ordem de cadastro.
func BallotPositions(e Election, candidates []Candidate) []string {
	if len(e.Positions) > 0 {
		return append([]string(nil), e.Positions...)
	}
	seen := make(map[string]struct{})
	var positions []string
	for _, c := range candidates {
		if _, ok := seen[c.Position]; ok {
			continue
		}
		seen[c.Position] = struct{}{}
		positions = append(positions, c.Position)
	}
	return positions
}

func (Election) TableName() string { return "elections" }

func (Candidate) TableName() string { return "candidates" }

func (CandidateApplication) TableName() string { return "candidate_applications" }

func (VoterProfile) TableName() string { return "profiles" }

func (Vote) TableName() string { return "votes" }

func (EligibleVoter) TableName() string { return "eligible_voters" }
