package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix      = "ticket_lock:"
	defaultLockTTL = 30 * time.Second
)

// unlockScript deletes the lock only if it is still held by the caller.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis serializes state changes on a single ticket across service
// instances. The lock TTL bounds how long a crashed holder blocks a ticket.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Redis{Client: client, TTL: ttl}
}

func lockKey(ticketID string) string {
	return keyPrefix + ticketID
}

// IsTicketLocked reports whether any holder has the ticket locked.
func (r *Redis) IsTicketLocked(ctx context.Context, ticketID string) (bool, error) {
	_, err := r.Client.Get(ctx, lockKey(ticketID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockTicket takes the lock for owner. It returns false if someone else holds it.
func (r *Redis) LockTicket(ctx context.Context, ticketID, owner string) (bool, error) {
	return r.Client.SetNX(ctx, lockKey(ticketID), owner, r.TTL).Result()
}

// UnlockTicket releases the lock if owner still holds it.
func (r *Redis) UnlockTicket(ctx context.Context, ticketID, owner string) error {
	err := unlockScript.Run(ctx, r.Client, []string{lockKey(ticketID)}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
