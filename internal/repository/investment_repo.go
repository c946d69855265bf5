package repository

import (
	"context"
	"sort"

	"investsystem/internal/model"
)

type InvestmentRepository struct {
	store TxStore
}

func NewInvestmentRepository(store TxStore) *InvestmentRepository {
	return &InvestmentRepository{store: store}
}

func (r *InvestmentRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

func (r *InvestmentRepository) GetAll(ctx context.Context, tx Store) ([]*model.Investment, error) {
	var investments []*model.Investment
	if _, err := getDocument(ctx, r.base(tx), model.DocKeyInvestments, &investments); err != nil {
		return nil, err
	}
	return investments, nil
}

func (r *InvestmentRepository) SaveAll(ctx context.Context, tx Store, investments []*model.Investment) error {
	return putDocument(ctx, r.base(tx), model.DocKeyInvestments, investments)
}

func (r *InvestmentRepository) Append(ctx context.Context, tx Store, inv *model.Investment) error {
	investments, err := r.GetAll(ctx, tx)
	if err != nil {
		return err
	}
	investments = append(investments, inv)
	return r.SaveAll(ctx, tx, investments)
}

// Update 读取-复制-修改-写回，用于收益入账
func (r *InvestmentRepository) Update(ctx context.Context, tx Store, investmentID string, mutate func(*model.Investment) error) (*model.Investment, error) {
	investments, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for i, inv := range investments {
		if inv.ID != investmentID {
			continue
		}
		copied := *inv
		copied.DailyReturns = append([]model.DailyReturn(nil), inv.DailyReturns...)
		if err := mutate(&copied); err != nil {
			return nil, err
		}
		investments[i] = &copied
		if err := r.SaveAll(ctx, tx, investments); err != nil {
			return nil, err
		}
		return &copied, nil
	}
	return nil, ErrInvestmentNotFound
}

// ListByUserID 按用户查询，开始时间倒序
func (r *InvestmentRepository) ListByUserID(ctx context.Context, tx Store, userID string) ([]*model.Investment, error) {
	investments, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.Investment
	for _, inv := range investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

// ListActive 全部进行中的投资，后台入账任务用
func (r *InvestmentRepository) ListActive(ctx context.Context, tx Store) ([]*model.Investment, error) {
	investments, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.Investment
	for _, inv := range investments {
		if inv.Status == model.InvestmentStatusActive {
			out = append(out, inv)
		}
	}
	return out, nil
}
