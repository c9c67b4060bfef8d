// Pacote eligibility decide se um eleitor pode votar em uma eleição.
// A avaliação é pura: quem chama busca perfil e lista de autorizados e deve reavaliar a cada requisição.
package eligibility

import (
	"strings"

	"github.com/marcelojr/uvote/internal/domain"
)

const (
	ReasonNotVerified          = "profile not verified"
	ReasonNotOnList            = "not on eligible voter list"
	ReasonDepartmentNotAllowed = "department not eligible"
	ReasonYearLevelNotAllowed  = "year level not eligible"
)

type Decision struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// AllowList é o conjunto de eleitores autorizados quando a eleição restringe a votação.
type AllowList map[domain.UserID]struct{}

func NewAllowList(entries []domain.EligibleVoter) AllowList {
	list := make(AllowList, len(entries))
	for _, e := range entries {
		list[e.UserID] = struct{}{}
	}
	return list
}

// Single monta uma lista com um único eleitor, útil quando só sabemos se ele está ou não listado.
func Single(id domain.UserID, listed bool) AllowList {
	if !listed {
		return AllowList{}
	}
	return AllowList{id: {}}
}

func (l AllowList) Contains(id domain.UserID) bool {
	_, ok := l[id]
	return ok
}

// Evaluate aplica as regras em ordem; a primeira que falha define o motivo.
func Evaluate(profile domain.VoterProfile, rules domain.Eligibility, allowed AllowList) Decision {
	if !profile.IsVerified {
		return Decision{Reason: ReasonNotVerified}
	}
	if rules.RestrictVoting && !allowed.Contains(profile.ID) {
		return Decision{Reason: ReasonNotOnList}
	}
	if restricts(rules.Departments, domain.AllDepartments) && !contains(rules.Departments, profile.Department) {
		return Decision{Reason: ReasonDepartmentNotAllowed}
	}
	if restricts(rules.YearLevels, domain.AllYearLevels) && !contains(rules.YearLevels, profile.YearLevel) {
		return Decision{Reason: ReasonYearLevelNotAllowed}
	}
	return Decision{Eligible: true}
}

// CountEligible recalcula o denominador de participação a partir da população atual.
func CountEligible(profiles []domain.VoterProfile, rules domain.Eligibility, allowed AllowList) int64 {
	var total int64
	for _, p := range profiles {
		if Evaluate(p, rules, allowed).Eligible {
			total++
		}
	}
	return total
}

func restricts(values []string, sentinel string) bool {
	if len(values) == 0 {
		return false
	}
	return !contains(values, sentinel)
}

func contains(values []string, target string) bool {
	target = normalize(target)
	if target == "" {
		return false
	}
	for _, v := range values {
		if normalize(v) == target {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
