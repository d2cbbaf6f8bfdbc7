// Package chaindb implements mempool.ChainDatabase over Redis, using
// the settlement layer's "forged" set — the teacher's settlement
// engine marks transactions settled by id; this package answers
// membership in that same set.
package chaindb

import (
	"context"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/stathera/txadmission/pkg/errors"
)

const forgedSetKey = "chain:forged"

// RedisChainDatabase answers forged-id membership queries against a
// Redis set maintained by the settlement layer.
type RedisChainDatabase struct {
	client *redis.Client
}

// NewRedisChainDatabase wires a RedisChainDatabase against an
// already-connected client.
func NewRedisChainDatabase(client *redis.Client) *RedisChainDatabase {
	return &RedisChainDatabase{client: client}
}

// GetForgedTransactionIDs returns the subset of ids already present
// in the forged set, using a single pipelined round trip.
func (c *RedisChainDatabase) GetForgedTransactionIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.SIsMember(ctx, forgedSetKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.MempoolWrap(err, apperrors.OpChainForgedLookup, apperrors.MempoolErrChainUnavailable, "forged-id membership check")
	}

	var forged []string
	for i, cmd := range cmds {
		if cmd.Val() {
			forged = append(forged, ids[i])
		}
	}
	return forged, nil
}

// MarkForged records ids as settled/forged, called by the settlement
// layer once a batch finalizes.
func (c *RedisChainDatabase) MarkForged(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := c.client.SAdd(ctx, forgedSetKey, members...).Err(); err != nil {
		return apperrors.MempoolWrap(err, apperrors.OpChainForgedLookup, apperrors.MempoolErrChainUnavailable, "mark forged")
	}
	return nil
}
