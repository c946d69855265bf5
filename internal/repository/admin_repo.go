package repository

import (
	"context"
	"fmt"

	"investsystem/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminUsername 空库首次读取时播种的默认管理员
const DefaultAdminUsername = "admin"

const defaultAdminPassword = "admin123"

type AdminRepository struct {
	store TxStore
}

func NewAdminRepository(store TxStore) *AdminRepository {
	return &AdminRepository{store: store}
}

func (r *AdminRepository) base(tx Store) Store {
	if tx == nil {
		return r.store
	}
	return tx
}

// GetAll 读取管理员集合
// 键不存在时播种一条默认 admin/admin123 记录（密码存 bcrypt 哈希）。
// 只在键缺失时播种，重复读取不会产生第二条默认记录
func (r *AdminRepository) GetAll(ctx context.Context, tx Store) ([]*model.Admin, error) {
	s := r.base(tx)
	var admins []*model.Admin
	ok, err := getDocument(ctx, s, model.DocKeyAdmins, &admins)
	if err != nil {
		return nil, err
	}
	if ok {
		return admins, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成默认管理员密码哈希失败: %w", err)
	}
	admins = []*model.Admin{
		{ID: "1", Username: DefaultAdminUsername, PasswordHash: string(hash)},
	}
	if err := putDocument(ctx, s, model.DocKeyAdmins, admins); err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, tx Store, username string) (*model.Admin, error) {
	admins, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAdminNotFound
}
