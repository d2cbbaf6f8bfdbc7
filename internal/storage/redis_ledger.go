// internal/storage/redis_ledger.go
package storage

import (
	"context"

	apperrors "github.com/stathera/txadmission/pkg/errors"

	"github.com/go-redis/redis/v8"
)

// Balance key prefix for storing user balances
const balanceKeyPrefix = "balance:"

// Nonce key prefix for storing each sender's last-applied nonce
const nonceKeyPrefix = "nonce:"

// RedisLedger handles the storage and retrieval of account balances using Redis
type RedisLedger struct {
	Client *redis.Client
	ctx    context.Context
}

// NewRedisLedger creates a new Redis-backed ledger
func NewRedisLedger(redisAddr string) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})

	ctx := context.Background()

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, apperrors.StorageWrapWithCode(err, apperrors.OpConnect, apperrors.StorageErrConnection, "connect to redis ledger")
	}

	return &RedisLedger{
		Client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (rl *RedisLedger) Close() error {
	return rl.Client.Close()
}

// GetBalance returns the account balance for a given address
func (rl *RedisLedger) GetBalance(address string) (float64, error) {
	val, err := rl.Client.Get(rl.ctx, balanceKeyPrefix+address).Float64()
	if err == redis.Nil {
		// Address not found, return zero balance
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.StorageWrapWithCode(err, apperrors.OpGet, apperrors.StorageErrRead, "get balance for "+address)
	}
	return val, nil
}

// SetBalance sets the balance for an address
func (rl *RedisLedger) SetBalance(address string, amount float64) error {
	if err := rl.Client.Set(rl.ctx, balanceKeyPrefix+address, amount, 0).Err(); err != nil {
		return apperrors.StorageWrapWithCode(err, apperrors.OpSet, apperrors.StorageErrWrite, "set balance for "+address)
	}
	return nil
}

// GetNonce returns the last nonce applied for address, or zero if the
// address has never had a transaction applied.
func (rl *RedisLedger) GetNonce(address string) (int64, error) {
	val, err := rl.Client.Get(rl.ctx, nonceKeyPrefix+address).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.StorageWrapWithCode(err, apperrors.OpGet, apperrors.StorageErrRead, "get nonce for "+address)
	}
	return val, nil
}

// SetNonce records nonce as the last one applied for address.
func (rl *RedisLedger) SetNonce(address string, nonce int64) error {
	if err := rl.Client.Set(rl.ctx, nonceKeyPrefix+address, nonce, 0).Err(); err != nil {
		return apperrors.StorageWrapWithCode(err, apperrors.OpSet, apperrors.StorageErrWrite, "set nonce for "+address)
	}
	return nil
}

