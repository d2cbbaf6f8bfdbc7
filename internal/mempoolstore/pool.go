// Package mempoolstore implements the mempool.Pool contract over
// Redis, grounded on the teacher's RedisOrderBook: one Redis instance,
// a plain set tracking membership, a plain set of ids per sender for the
// capacity check, and per-record JSON blobs keyed by id.
package mempoolstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/stathera/txadmission/internal/mempool"
	apperrors "github.com/stathera/txadmission/pkg/errors"
)

const (
	membersKey   = "mempool:ids"
	recordPrefix = "mempool:tx:"
	senderPrefix = "mempool:sender:"
)

// RedisPool is a Redis-backed implementation of mempool.Pool.
type RedisPool struct {
	client            *redis.Client
	capacityPerSender int
}

// NewRedisPool wires a RedisPool against an already-connected client.
// capacityPerSender is the ceiling enforced in AddTransactions; zero or
// negative disables the check.
func NewRedisPool(client *redis.Client, capacityPerSender int) *RedisPool {
	return &RedisPool{client: client, capacityPerSender: capacityPerSender}
}

// Has reports whether id is already a pool member.
func (p *RedisPool) Has(ctx context.Context, id string) (bool, error) {
	ok, err := p.client.SIsMember(ctx, membersKey, id).Result()
	if err != nil {
		return false, apperrors.MempoolWrap(err, apperrors.OpPoolHas, apperrors.MempoolErrPoolUnavailable, "mempool pool membership lookup")
	}
	return ok, nil
}

// AddTransactions inserts txs into the pool, rejecting any whose
// sender is already at capacity with ERR_POOL_FULL and surfacing any
// storage failure per-transaction as ERR_POOL_OTHER rather than
// failing the whole batch.
func (p *RedisPool) AddTransactions(ctx context.Context, txs []mempool.Transaction) ([]mempool.PoolRejection, error) {
	var rejections []mempool.PoolRejection

	for _, tx := range txs {
		sender := fmt.Sprintf("%x", tx.SenderKey())

		if p.capacityPerSender > 0 {
			count, err := p.client.SCard(ctx, senderPrefix+sender).Result()
			if err != nil {
				rejections = append(rejections, mempool.PoolRejection{
					TxID: tx.ID(), Kind: mempool.ErrPoolOther, Message: err.Error(),
				})
				continue
			}
			if int(count) >= p.capacityPerSender {
				rejections = append(rejections, mempool.PoolRejection{
					TxID:    tx.ID(),
					Kind:    mempool.ErrPoolFull,
					Message: fmt.Sprintf("sender %s at mempool capacity (%d)", sender, p.capacityPerSender),
				})
				continue
			}
		}

		raw, err := json.Marshal(tx.Serialized())
		if err != nil {
			rejections = append(rejections, mempool.PoolRejection{
				TxID: tx.ID(), Kind: mempool.ErrPoolOther, Message: err.Error(),
			})
			continue
		}

		pipe := p.client.TxPipeline()
		pipe.Set(ctx, recordPrefix+tx.ID(), raw, 0)
		pipe.SAdd(ctx, membersKey, tx.ID())
		pipe.SAdd(ctx, senderPrefix+sender, tx.ID())
		if _, err := pipe.Exec(ctx); err != nil {
			rejections = append(rejections, mempool.PoolRejection{
				TxID: tx.ID(), Kind: mempool.ErrPoolOther, Message: err.Error(),
			})
		}
	}

	return rejections, nil
}
