package distributed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

const (
	seasonLockPrefix = "recalc:season:"
	globalLockKey    = "recalc:global"

	lockRetries       = 10
	lockRetryInterval = 500 * time.Millisecond
)

// RecalcLock 재계산 직렬화를 위한 Redis 분산 락
type RecalcLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// RecalcLockManager creates season-scoped advisory locks so two concurrent
// recalculations of the same season never interleave their ledger rewrites.
type RecalcLockManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecalcLockManager Lock Manager 생성
func NewRecalcLockManager(client *redis.Client, ttl time.Duration) *RecalcLockManager {
	return &RecalcLockManager{
		client: client,
		ttl:    ttl,
	}
}

// AcquireSeasonLock 시즌 재계산 락 획득 (재시도 포함)
func (m *RecalcLockManager) AcquireSeasonLock(ctx context.Context, seasonID string) (*RecalcLock, error) {
	return m.acquireWithRetry(ctx, seasonLockPrefix+seasonID)
}

// AcquireGlobalLock 전체 재계산 락 획득
func (m *RecalcLockManager) AcquireGlobalLock(ctx context.Context) (*RecalcLock, error) {
	return m.acquireWithRetry(ctx, globalLockKey)
}

func (m *RecalcLockManager) acquireWithRetry(ctx context.Context, key string) (*RecalcLock, error) {
	value := uuid.NewString()

	for i := 0; i < lockRetries; i++ {
		// SET NX (Not Exists) 명령으로 원자적 락 획득
		success, err := m.client.SetNX(ctx, key, value, m.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if success {
			return &RecalcLock{
				client: m.client,
				key:    key,
				value:  value,
				ttl:    m.ttl,
			}, nil
		}

		// 재시도 전 대기
		if i < lockRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(lockRetryInterval):
			}
		}
	}

	return nil, ErrLockNotAcquired
}

// Release 락 해제 (Lua 스크립트로 안전하게)
func (l *RecalcLock) Release(ctx context.Context) error {
	// Lua 스크립트: 자신이 획득한 락만 해제
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return err
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	return nil
}

// Extend 락 TTL 연장 (장시간 재계산 중 주기적으로 호출)
func (l *RecalcLock) Extend(ctx context.Context, extension time.Duration) error {
	// Lua 스크립트: 자신이 획득한 락만 TTL 연장
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)

	ttlMs := extension.Milliseconds()
	result, err := script.Run(ctx, l.client, []string{l.key}, l.value, ttlMs).Int()
	if err != nil {
		return err
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	l.ttl = extension
	return nil
}

// IsHeld 락이 현재 유효한지 확인
func (l *RecalcLock) IsHeld(ctx context.Context) (bool, error) {
	value, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return value == l.value, nil
}
