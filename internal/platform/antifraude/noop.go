package antifraude

import (
	"context"

	"github.com/marcelojr/uvote/internal/domain"
)

// Noop é usado quando o rate limit está desligado na configuração.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) CheckAttempt(context.Context, domain.ElectionID, domain.UserID) error {
	return nil
}

var _ domain.Antifraude = Noop{}
