// Pacote antifraude limita tentativas de cédula por eleitor (rate limit Redis e modo noop).
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/uvote/internal/domain"
)

var ErrRateLimitExceeded = fmt.Errorf("antifraude: %w", domain.ErrRateLimited)

// RedisRateLimiter conta tentativas por (eleição, eleitor) em janelas fixas.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) CheckAttempt(ctx context.Context, electionID domain.ElectionID, userID domain.UserID) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Configuração inválida cai no modo permissivo.
		return nil
	}

	key := r.buildKey(electionID, userID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("antifraude: falha ao incrementar chave: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("antifraude: falha ao definir expiracao: %w", err)
		}
	}

	if int(count) > r.limit {
		return ErrRateLimitExceeded
	}

	return nil
}

func (r *RedisRateLimiter) buildKey(electionID domain.ElectionID, userID domain.UserID) string {
	// O id do eleitor não aparece em claro nas chaves.
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|%s", electionID, userID)))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)
