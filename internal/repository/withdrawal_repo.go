package repository

import (
	"context"
	"sort"

	"investsystem/internal/model"
)

type WithdrawalRepository struct {
	store TxStore
}

func NewWithdrawalRepository(store TxStore) *WithdrawalRepository {
	return &WithdrawalRepository{store: store}
}

func (r *WithdrawalRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

func (r *WithdrawalRepository) GetAll(ctx context.Context, tx Store) ([]*model.WithdrawalRequest, error) {
	var withdrawals []*model.WithdrawalRequest
	if _, err := getDocument(ctx, r.base(tx), model.DocKeyWithdrawals, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *WithdrawalRepository) SaveAll(ctx context.Context, tx Store, withdrawals []*model.WithdrawalRequest) error {
	return putDocument(ctx, r.base(tx), model.DocKeyWithdrawals, withdrawals)
}

func (r *WithdrawalRepository) Append(ctx context.Context, tx Store, w *model.WithdrawalRequest) error {
	withdrawals, err := r.GetAll(ctx, tx)
	if err != nil {
		return err
	}
	withdrawals = append(withdrawals, w)
	return r.SaveAll(ctx, tx, withdrawals)
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, tx Store, requestID string) (*model.WithdrawalRequest, error) {
	withdrawals, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, w := range withdrawals {
		if w.ID == requestID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, ErrRequestNotFound
}

// Update 读取-复制-修改-写回，找不到返回 ErrRequestNotFound
func (r *WithdrawalRepository) Update(ctx context.Context, tx Store, requestID string, mutate func(*model.WithdrawalRequest) error) (*model.WithdrawalRequest, error) {
	withdrawals, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for i, w := range withdrawals {
		if w.ID != requestID {
			continue
		}
		copied := *w
		if err := mutate(&copied); err != nil {
			return nil, err
		}
		withdrawals[i] = &copied
		if err := r.SaveAll(ctx, tx, withdrawals); err != nil {
			return nil, err
		}
		return &copied, nil
	}
	return nil, ErrRequestNotFound
}

// ListByUserID 按用户查询，申请时间倒序
func (r *WithdrawalRepository) ListByUserID(ctx context.Context, tx Store, userID string) ([]*model.WithdrawalRequest, error) {
	withdrawals, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.WithdrawalRequest
	for _, w := range withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestDate.After(out[j].RequestDate)
	})
	return out, nil
}
