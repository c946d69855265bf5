package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
	"investsystem/pkg/idgen"
)

var ErrInvalidField = errors.New("只允许修改 balance/earned/invested 字段")

// 管理员可直接覆写的用户字段
const (
	FieldBalance  = "balance"
	FieldEarned   = "earned"
	FieldInvested = "invested"
)

// AdminService 管理端操作
//
// SetUserField 是刻意保留的后门：它绕过生命周期校验，可以把余额改成负数、
// 让 invested 与实际投资记录脱节。它独立于用户侧操作，普通流程不会走到这里
type AdminService struct {
	store        repository.TxStore
	locks        lock.Factory
	userRepo     *repository.UserRepository
	withdrawRepo *repository.WithdrawalRepository
	sessionRepo  *repository.SessionRepository
}

func NewAdminService(store repository.TxStore, locks lock.Factory) *AdminService {
	return &AdminService{
		store:        store,
		locks:        locks,
		userRepo:     repository.NewUserRepository(store),
		withdrawRepo: repository.NewWithdrawalRepository(store),
		sessionRepo:  repository.NewSessionRepository(store),
	}
}

// SetUserField 直接覆写用户的数值字段
// field 为 invested 时同步覆写 totalInvestment 并按门槛表重算 VIP，
// 这条路径上 VIP 可以降级（与投资购买路径不同）
func (s *AdminService) SetUserField(ctx context.Context, userID, field string, value int64) (*model.User, error) {
	if field != FieldBalance && field != FieldEarned && field != FieldInvested {
		return nil, ErrInvalidField
	}

	userLock := s.locks.UserLock(userID, fmt.Sprintf("%d", idgen.NextID()))
	if err := userLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer userLock.Unlock(ctx)

	var updated *model.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		updated, err = s.userRepo.Update(ctx, tx, userID, func(u *model.User) error {
			switch field {
			case FieldBalance:
				u.Balance = value
			case FieldEarned:
				u.Earned = value
			case FieldInvested:
				u.Invested = value
				u.TotalInvestment = value
				u.VipLevel = model.VipLevelFor(value)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.sessionRepo.SyncUser(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListUsers 全部用户（管理端展示用，含密码哈希但不含明文）
func (s *AdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.GetAll(ctx, nil)
}

// DashboardStats 管理端看板汇总
type DashboardStats struct {
	TotalUsers         int   `json:"total_users"`
	TotalBalance       int64 `json:"total_balance"`
	TotalInvested      int64 `json:"total_invested"`
	PendingWithdrawals int   `json:"pending_withdrawals"`
}

func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.userRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.withdrawRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{TotalUsers: len(users)}
	for _, u := range users {
		stats.TotalBalance += u.Balance
		stats.TotalInvested += u.Invested
	}
	for _, w := range withdrawals {
		if w.Status == model.WithdrawalStatusPending {
			stats.PendingWithdrawals++
		}
	}
	return stats, nil
}
