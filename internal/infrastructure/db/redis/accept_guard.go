package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultGuardTTL bounds how long a crashed holder can block accepts.
const DefaultGuardTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds this guard's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcceptGuard serialises accept attempts per consultation with SET NX.
// Key format: accept:<consultation_id>
type AcceptGuard struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

// NewAcceptGuard creates an AcceptGuard. A non-positive ttl uses DefaultGuardTTL.
func NewAcceptGuard(client *redis.Client, ttl time.Duration) *AcceptGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &AcceptGuard{client: client, ttl: ttl, token: uuid.NewString()}
}

// Acquire reports whether the guard was free and is now held by this process.
func (g *AcceptGuard) Acquire(ctx context.Context, consultationID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(consultationID), g.token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("accept guard: %w", err)
	}
	return ok, nil
}

// Release frees the guard if this process still holds it.
func (g *AcceptGuard) Release(ctx context.Context, consultationID string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(consultationID)}, g.token).Err(); err != nil {
		return fmt.Errorf("accept guard release: %w", err)
	}
	return nil
}

func (g *AcceptGuard) key(consultationID string) string {
	return "accept:" + consultationID
}
