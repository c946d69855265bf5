package repository

import (
	"context"
	"errors"

	"investsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 MySQL 文档表的存储实现
// 一个逻辑键一行，事务直接复用数据库事务
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc model.LedgerDocument
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return doc.Value, true, nil
}

func (s *GormStore) Put(ctx context.Context, key, value string) error {
	doc := &model.LedgerDocument{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(doc).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("`key` = ?", key).
		Delete(&model.LedgerDocument{}).Error
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
