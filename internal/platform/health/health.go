// Pacote health expõe /healthz (processo vivo) e /readyz (dependências acessíveis).
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

// Check é uma dependência verificada pelo readiness.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Checker struct {
	checks  []Check
	timeout time.Duration
}

type Option func(*Checker)

func WithDatabase(db *sql.DB) Option {
	return func(c *Checker) {
		if db == nil {
			return
		}
		c.checks = append(c.checks, Check{Name: "database", Ping: db.PingContext})
	}
}

func WithRedis(client *redis.Client) Option {
	return func(c *Checker) {
		if client == nil {
			return
		}
		c.checks = append(c.checks, Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeReport(w, http.StatusOK, report{Status: statusOK})
	}
}

// ReadyHandler roda todas as checagens; qualquer falha devolve 503 com o detalhe por dependência.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		rep := report{Status: statusOK, Checks: make(map[string]string, len(c.checks))}
		code := http.StatusOK
		for _, check := range c.checks {
			if err := check.Ping(ctx); err != nil {
				rep.Checks[check.Name] = statusUnavailable
				rep.Status = statusUnavailable
				code = http.StatusServiceUnavailable
				continue
			}
			rep.Checks[check.Name] = statusOK
		}

		writeReport(w, code, rep)
	}
}

func writeReport(w http.ResponseWriter, code int, rep report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}
