package service

import (
	"context"
	"errors"
	"testing"

	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
)

func newAdminEnv(t *testing.T) (*AdminService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewAdminService(store, lock.NewLocalFactory()), store
}

func TestSetUserFieldBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 100})

	updated, err := svc.SetUserField(ctx, "u1", FieldBalance, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Balance != 5000 {
		t.Errorf("Balance = %d, want 5000", updated.Balance)
	}

	// 后门允许负余额
	updated, err = svc.SetUserField(ctx, "u1", FieldBalance, -42)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Balance != -42 {
		t.Errorf("Balance = %d, want -42", updated.Balance)
	}
}

func TestSetUserFieldEarned(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Earned: 10})

	updated, err := svc.SetUserField(ctx, "u1", FieldEarned, 777)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Earned != 777 {
		t.Errorf("Earned = %d, want 777", updated.Earned)
	}
	// earned 修改不牵连其他字段
	if updated.Balance != 0 || updated.VipLevel != 0 {
		t.Errorf("不应牵连其他字段: %+v", updated)
	}
}

// invested 修改同步覆写累计投资额并按门槛表重算 VIP，这条路径允许降级
func TestSetUserFieldInvestedRecomputesVip(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Invested: 900, TotalInvestment: 900, VipLevel: 2})

	tests := []struct {
		value   int64
		wantVip int
	}{
		{800, 2},
		{250, 1},
		{100, 0}, // 降级
		{1000, 2},
	}
	for _, tt := range tests {
		updated, err := svc.SetUserField(ctx, "u1", FieldInvested, tt.value)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Invested != tt.value || updated.TotalInvestment != tt.value {
			t.Errorf("value=%d: Invested=%d TotalInvestment=%d", tt.value, updated.Invested, updated.TotalInvestment)
		}
		if updated.VipLevel != tt.wantVip {
			t.Errorf("value=%d: VipLevel = %d, want %d", tt.value, updated.VipLevel, tt.wantVip)
		}
	}
}

func TestSetUserFieldErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	seedUser(t, store, &model.User{ID: "u1"})

	if _, err := svc.SetUserField(ctx, "u1", "vip_level", 2); !errors.Is(err, ErrInvalidField) {
		t.Errorf("期望 ErrInvalidField, 得到 %v", err)
	}
	if _, err := svc.SetUserField(ctx, "ghost", FieldBalance, 1); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound, 得到 %v", err)
	}
}

func TestSetUserFieldSyncsSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	user := &model.User{ID: "u1", Balance: 100}
	seedUser(t, store, user)
	sessions := repository.NewSessionRepository(store)
	if err := sessions.SetCurrentUser(ctx, nil, user); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetUserField(ctx, "u1", FieldBalance, 888); err != nil {
		t.Fatal(err)
	}
	current, _ := sessions.GetCurrentUser(ctx, nil)
	if current == nil || current.Balance != 888 {
		t.Errorf("会话用户未同步: %+v", current)
	}
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 100, Invested: 300})
	seedUser(t, store, &model.User{ID: "u2", Balance: 250, Invested: 0})

	withdrawRepo := repository.NewWithdrawalRepository(store)
	withdrawRepo.Append(ctx, nil, &model.WithdrawalRequest{ID: "w1", UserID: "u1", Status: model.WithdrawalStatusPending})
	withdrawRepo.Append(ctx, nil, &model.WithdrawalRequest{ID: "w2", UserID: "u1", Status: model.WithdrawalStatusRejected})
	withdrawRepo.Append(ctx, nil, &model.WithdrawalRequest{ID: "w3", UserID: "u2", Status: model.WithdrawalStatusPending})

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.TotalBalance != 350 {
		t.Errorf("TotalBalance = %d, want 350", stats.TotalBalance)
	}
	if stats.TotalInvested != 300 {
		t.Errorf("TotalInvested = %d, want 300", stats.TotalInvested)
	}
	if stats.PendingWithdrawals != 2 {
		t.Errorf("PendingWithdrawals = %d, want 2", stats.PendingWithdrawals)
	}
}
