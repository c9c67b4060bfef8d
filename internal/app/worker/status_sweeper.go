// Pacote worker contém as rotinas agendadas que rodam fora do caminho das requisições.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/logger"
	"github.com/marcelojr/uvote/internal/platform/metrics"
)

// StatusSweeper grava o status derivado da janela de votação. A API já usa o status efetivo;
// a varredura mantém a coluna coerente para relatórios e consultas diretas ao banco.
type StatusSweeper struct {
	elections domain.ElectionRepository
	clock     domain.Clock
	log       *slog.Logger
	timeout   time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

func NewStatusSweeper(elections domain.ElectionRepository, clock domain.Clock, log *slog.Logger) *StatusSweeper {
	if log == nil {
		log = logger.L()
	}
	return &StatusSweeper{
		elections: elections,
		clock:     clock,
		log:       log,
		timeout:   30 * time.Second,
	}
}

// Sweep percorre as eleições uma vez e devolve quantas tiveram o status alterado.
// Uma eleição encerrada nunca volta a ficar ativa.
func (s *StatusSweeper) Sweep(ctx context.Context) (int, error) {
	elections, err := s.elections.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("worker: listar eleicoes: %w", err)
	}

	now := s.clock.Now()
	changed := 0
	for _, e := range elections {
		next := e.EffectiveStatus(now)
		if next == e.Status {
			continue
		}
		if err := s.elections.UpdateStatus(ctx, e.ID, next); err != nil {
			return changed, fmt.Errorf("worker: atualizar status %s: %w", e.ID, err)
		}
		metrics.IncStatusTransition(string(next))
		s.log.Info("status da eleicao atualizado",
			"election_id", e.ID,
			"from", e.Status,
			"to", next,
		)
		changed++
	}
	return changed, nil
}

// Start agenda a varredura; schedule aceita expressões cron de cinco campos ou descritores como "@every 1m".
func (s *StatusSweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("worker: varredura ja iniciada")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("worker: agenda invalida %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop para o agendador e espera a varredura em andamento terminar.
func (s *StatusSweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (s *StatusSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	changed, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("varredura de status falhou", "error", err, "changed", changed)
		return
	}
	if changed > 0 {
		s.log.Info("varredura de status concluida", "changed", changed)
	}
}
