package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/ids"
)

// releaseScript só apaga a chave se ela ainda pertence a quem a criou; após o TTL outro pedido pode ser o dono.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// BallotLock serializa submissões do mesmo eleitor na mesma eleição com SET NX + TTL.
type BallotLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ids    *ids.Generator
}

func NewBallotLock(client *redis.Client, prefix string, ttl time.Duration) *BallotLock {
	if prefix == "" {
		prefix = "ballot-lock"
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &BallotLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		ids:    ids.NewGenerator(),
	}
}

func (l *BallotLock) Acquire(ctx context.Context, electionID domain.ElectionID, userID domain.UserID) (func() error, error) {
	key := l.key(electionID, userID)
	token := l.ids.New()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis trava: adquirir: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	release := func() error {
		// Contexto próprio: a liberação precisa acontecer mesmo com o pedido cancelado.
		ctxRelease, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctxRelease, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis trava: liberar %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}

func (l *BallotLock) key(electionID domain.ElectionID, userID domain.UserID) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, electionID, userID)
}

var _ domain.BallotLock = (*BallotLock)(nil)
