package repository

import (
	"context"

	"investsystem/internal/model"
)

// SessionRepository 当前会话指针
// 会话里存的是用户/管理员记录的非规范化副本，底层记录变更后
// 由 service 层负责同步（SyncUser），而不是依赖内存别名
type SessionRepository struct {
	store TxStore
}

func NewSessionRepository(store TxStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

func (r *SessionRepository) GetCurrentUser(ctx context.Context, tx Store) (*model.User, error) {
	var user model.User
	ok, err := getDocument(ctx, r.base(tx), model.DocKeyCurrentUser, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *SessionRepository) SetCurrentUser(ctx context.Context, tx Store, user *model.User) error {
	if user == nil {
		return r.base(tx).Delete(ctx, model.DocKeyCurrentUser)
	}
	return putDocument(ctx, r.base(tx), model.DocKeyCurrentUser, user)
}

// SyncUser 若该用户正是当前会话用户，则刷新会话副本
func (r *SessionRepository) SyncUser(ctx context.Context, tx Store, user *model.User) error {
	current, err := r.GetCurrentUser(ctx, tx)
	if err != nil {
		return err
	}
	if current == nil || current.ID != user.ID {
		return nil
	}
	return r.SetCurrentUser(ctx, tx, user)
}

func (r *SessionRepository) GetCurrentAdmin(ctx context.Context, tx Store) (*model.Admin, error) {
	var admin model.Admin
	ok, err := getDocument(ctx, r.base(tx), model.DocKeyCurrentAdmin, &admin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

func (r *SessionRepository) SetCurrentAdmin(ctx context.Context, tx Store, admin *model.Admin) error {
	if admin == nil {
		return r.base(tx).Delete(ctx, model.DocKeyCurrentAdmin)
	}
	return putDocument(ctx, r.base(tx), model.DocKeyCurrentAdmin, admin)
}
