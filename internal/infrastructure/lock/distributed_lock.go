package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 用户级互斥锁
// ============================================================================
//
// 每个生命周期操作（投资、提现申请、提现审批、改账、收益入账）都是对
// 同一份文档的读-改-写，文档存储本身没有隔离性，必须在操作外层按
// 用户维度加互斥，否则并发请求会互相覆盖。
//
// 多实例部署用 Redis 锁（SET NX EX + Lua 释放），单实例/单测用进程内锁。

var ErrLockFailed = errors.New("获取用户锁失败")

// Handle 一次加锁的句柄
type Handle interface {
	Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error
	Unlock(ctx context.Context) error
}

// Factory 按用户创建锁
type Factory interface {
	UserLock(userID, token string) Handle
}

// DistributedLock Redis 分布式锁
// value 记录持有者标识，释放时用 Lua 脚本校验后删除，避免误删他人持有的锁；
// 过期时间防止持有者崩溃后死锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 非阻塞尝试加锁
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock 阻塞式加锁，按间隔重试
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁，只删除自己持有的 key
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// RedisFactory 基于 Redis 的锁工厂
type RedisFactory struct {
	client *redis.Client
}

func NewRedisFactory(client *redis.Client) *RedisFactory {
	return &RedisFactory{client: client}
}

func (f *RedisFactory) UserLock(userID, token string) Handle {
	key := fmt.Sprintf("invest:lock:user:%s", userID)
	return NewDistributedLock(f.client, key, token, 30*time.Second)
}

// ============================================================================
// 进程内锁（单实例部署和单测用）
// ============================================================================

type LocalFactory struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalFactory() *LocalFactory {
	return &LocalFactory{locks: make(map[string]chan struct{})}
}

func (f *LocalFactory) UserLock(userID, token string) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		f.locks[userID] = ch
	}
	return &localHandle{ch: ch}
}

type localHandle struct {
	ch chan struct{}
}

func (h *localHandle) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	select {
	case h.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *localHandle) Unlock(ctx context.Context) error {
	select {
	case <-h.ch:
	default:
	}
	return nil
}
