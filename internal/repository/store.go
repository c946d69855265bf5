package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvestmentNotFound = errors.New("投资记录不存在")
	ErrRequestNotFound    = errors.New("提现单不存在")
	ErrAdminNotFound      = errors.New("管理员不存在")
)

// Store 键值文档存储
// 六个逻辑键对应六份 JSON 文档，键不存在视为空集合 / 无会话
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TxStore 带事务能力的文档存储
// 生命周期操作的全部写入必须在同一个事务里提交，要么全部生效要么全部回滚
type TxStore interface {
	Store
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// getDocument 读取并反序列化一个文档，键不存在时返回 false 且不改动 v
func getDocument(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("读取文档失败 key=%s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("解析文档失败 key=%s: %w", key, err)
	}
	return true, nil
}

// putDocument 序列化并写入一个文档
func putDocument(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化文档失败 key=%s: %w", key, err)
	}
	if err := s.Put(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("写入文档失败 key=%s: %w", key, err)
	}
	return nil
}
