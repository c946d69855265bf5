package repository

import (
	"context"

	"investsystem/internal/model"
)

type UserRepository struct {
	store TxStore
}

func NewUserRepository(store TxStore) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

func (r *UserRepository) GetAll(ctx context.Context, tx Store) ([]*model.User, error) {
	var users []*model.User
	if _, err := getDocument(ctx, r.base(tx), model.DocKeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) SaveAll(ctx context.Context, tx Store, users []*model.User) error {
	return putDocument(ctx, r.base(tx), model.DocKeyUsers, users)
}

func (r *UserRepository) GetByID(ctx context.Context, tx Store, userID string) (*model.User, error) {
	users, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == userID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *UserRepository) GetByMobile(ctx context.Context, tx Store, mobile string) (*model.User, error) {
	users, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Mobile == mobile {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, tx Store, user *model.User) error {
	users, err := r.GetAll(ctx, tx)
	if err != nil {
		return err
	}
	users = append(users, user)
	return r.SaveAll(ctx, tx, users)
}

// Update 读取-复制-修改-写回
// mutate 在用户副本上执行，成功后整体写回集合，避免内存别名直接改到持久化状态
func (r *UserRepository) Update(ctx context.Context, tx Store, userID string, mutate func(*model.User) error) (*model.User, error) {
	users, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if u.ID != userID {
			continue
		}
		copied := *u
		if err := mutate(&copied); err != nil {
			return nil, err
		}
		users[i] = &copied
		if err := r.SaveAll(ctx, tx, users); err != nil {
			return nil, err
		}
		return &copied, nil
	}
	return nil, ErrUserNotFound
}
