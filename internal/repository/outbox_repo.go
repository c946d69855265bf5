package repository

import (
	"context"

	"investsystem/internal/model"
)

type OutboxRepository struct {
	store TxStore
}

func NewOutboxRepository(store TxStore) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

func (r *OutboxRepository) getAll(ctx context.Context, tx Store) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	if _, err := getDocument(ctx, r.base(tx), model.DocKeyOutbox, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *OutboxRepository) saveAll(ctx context.Context, tx Store, messages []*model.OutboxMessage) error {
	return putDocument(ctx, r.base(tx), model.DocKeyOutbox, messages)
}

// Append 在业务事务内追加一条待投递消息
func (r *OutboxRepository) Append(ctx context.Context, tx Store, msg *model.OutboxMessage) error {
	messages, err := r.getAll(ctx, tx)
	if err != nil {
		return err
	}
	messages = append(messages, msg)
	return r.saveAll(ctx, tx, messages)
}

func (r *OutboxRepository) GetPending(ctx context.Context, tx Store, limit int) ([]*model.OutboxMessage, error) {
	messages, err := r.getAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.OutboxMessage
	for _, m := range messages {
		if m.Status == model.OutboxStatusPending {
			copied := *m
			out = append(out, &copied)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepository) update(ctx context.Context, tx Store, id string, mutate func(*model.OutboxMessage)) error {
	messages, err := r.getAll(ctx, tx)
	if err != nil {
		return err
	}
	for i, m := range messages {
		if m.ID != id {
			continue
		}
		copied := *m
		mutate(&copied)
		messages[i] = &copied
		return r.saveAll(ctx, tx, messages)
	}
	return nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, tx Store, id string) error {
	return r.update(ctx, tx, id, func(m *model.OutboxMessage) {
		m.Status = model.OutboxStatusSent
	})
}

func (r *OutboxRepository) IncrementRetry(ctx context.Context, tx Store, id string) error {
	return r.update(ctx, tx, id, func(m *model.OutboxMessage) {
		m.RetryCount++
	})
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, tx Store, id string) error {
	return r.update(ctx, tx, id, func(m *model.OutboxMessage) {
		m.Status = model.OutboxStatusFailed
		m.RetryCount++
	})
}
