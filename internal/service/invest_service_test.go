package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"investsystem/internal/config"
	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
)

var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				InvestEvents:   "invest_events",
				WithdrawEvents: "withdraw_events",
			},
		},
		Business: config.BusinessConfig{MaxRetryCount: 3},
	}
}

func newInvestEnv(t *testing.T) (*InvestService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewInvestService(store, lock.NewLocalFactory(), testConfig())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func seedUser(t *testing.T, store repository.TxStore, user *model.User) {
	t.Helper()
	if err := repository.NewUserRepository(store).Create(context.Background(), nil, user); err != nil {
		t.Fatal(err)
	}
}

func getUser(t *testing.T, store repository.TxStore, userID string) *model.User {
	t.Helper()
	user, err := repository.NewUserRepository(store).GetByID(context.Background(), nil, userID)
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func pendingOutbox(t *testing.T, store repository.TxStore) []*model.OutboxMessage {
	t.Helper()
	msgs, err := repository.NewOutboxRepository(store).GetPending(context.Background(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	return msgs
}

// 余额不足时购买失败，且不产生任何可观测的变更
func TestInvestInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 50})

	_, err := svc.Invest(ctx, "u1", "basic-100")
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("期望 ErrInsufficientBalance, 得到 %v", err)
	}

	user := getUser(t, store, "u1")
	if user.Balance != 50 || user.Invested != 0 || user.VipLevel != 0 {
		t.Errorf("失败的购买不应改动用户: %+v", user)
	}
	invs, _ := svc.ListUserInvestments(ctx, "u1")
	if len(invs) != 0 {
		t.Errorf("失败的购买不应产生投资记录, 得到 %d 条", len(invs))
	}
	if msgs := pendingOutbox(t, store); len(msgs) != 0 {
		t.Errorf("失败的购买不应产生事件, 得到 %d 条", len(msgs))
	}
}

func TestInvestDebitsAndBuildsSchedule(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 300})

	inv, err := svc.Invest(ctx, "u1", "basic-100")
	if err != nil {
		t.Fatal(err)
	}

	user := getUser(t, store, "u1")
	if user.Balance != 200 {
		t.Errorf("Balance = %d, want 200", user.Balance)
	}
	if user.Invested != 100 || user.TotalInvestment != 100 {
		t.Errorf("Invested = %d, TotalInvestment = %d, want 100/100", user.Invested, user.TotalInvestment)
	}
	if user.VipLevel != 0 {
		t.Errorf("VipLevel = %d, want 0", user.VipLevel)
	}

	// 经济参数从套餐快照
	if inv.Amount != 100 || inv.DailyIncome != 50 || inv.Days != 7 || inv.TotalIncome != 350 {
		t.Errorf("投资快照参数不符: %+v", inv)
	}
	if inv.Status != model.InvestmentStatusActive {
		t.Errorf("Status = %q, want ACTIVE", inv.Status)
	}
	if !inv.StartDate.Equal(fixedNow) || !inv.EndDate.Equal(fixedNow.AddDate(0, 0, 7)) {
		t.Errorf("起止时间不符: start=%v end=%v", inv.StartDate, inv.EndDate)
	}
	if len(inv.DailyReturns) != 7 {
		t.Fatalf("收益计划条数 = %d, want 7", len(inv.DailyReturns))
	}
	for i, r := range inv.DailyReturns {
		if !r.Date.Equal(fixedNow.AddDate(0, 0, i+1)) || r.Amount != 50 || r.Credited {
			t.Errorf("第 %d 条收益计划不符: %+v", i, r)
		}
	}

	msgs := pendingOutbox(t, store)
	if len(msgs) != 1 || msgs[0].Topic != "invest_events" {
		t.Errorf("期望 1 条 invest_events 事件, 得到 %+v", msgs)
	}
}

// 余额恰好等于套餐价格时允许购买，买完归零
func TestInvestExactBalanceBoundary(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 100})

	if _, err := svc.Invest(ctx, "u1", "basic-100"); err != nil {
		t.Fatal(err)
	}
	if user := getUser(t, store, "u1"); user.Balance != 0 {
		t.Errorf("Balance = %d, want 0", user.Balance)
	}
}

// 连续购买：300 -> 200 -> 100 -> 0，第四次失败；累计 300 升到 VIP 1
func TestInvestRepeatedPurchases(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 300})

	wantBalances := []int64{200, 100, 0}
	for i, want := range wantBalances {
		if _, err := svc.Invest(ctx, "u1", "basic-100"); err != nil {
			t.Fatalf("第 %d 次购买失败: %v", i+1, err)
		}
		if got := getUser(t, store, "u1").Balance; got != want {
			t.Errorf("第 %d 次购买后 Balance = %d, want %d", i+1, got, want)
		}
	}

	if _, err := svc.Invest(ctx, "u1", "basic-100"); !errors.Is(err, model.ErrInsufficientBalance) {
		t.Errorf("第 4 次购买期望余额不足, 得到 %v", err)
	}

	user := getUser(t, store, "u1")
	if user.Invested != 300 || user.TotalInvestment != 300 {
		t.Errorf("累计投资 = %d/%d, want 300/300", user.Invested, user.TotalInvestment)
	}
	if user.VipLevel != 1 {
		t.Errorf("VipLevel = %d, want 1", user.VipLevel)
	}
	invs, _ := svc.ListUserInvestments(ctx, "u1")
	if len(invs) != 3 {
		t.Errorf("投资记录数 = %d, want 3", len(invs))
	}
}

// 购买路径上 VIP 只升不降
func TestInvestVipNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 1000, VipLevel: 2})

	if _, err := svc.Invest(ctx, "u1", "basic-100"); err != nil {
		t.Fatal(err)
	}
	if user := getUser(t, store, "u1"); user.VipLevel != 2 {
		t.Errorf("VipLevel = %d, want 2（不降级）", user.VipLevel)
	}
}

func TestInvestVipUpgrade(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 1000})

	if _, err := svc.Invest(ctx, "u1", "vip-800"); err != nil {
		t.Fatal(err)
	}
	if user := getUser(t, store, "u1"); user.VipLevel != 2 {
		t.Errorf("VipLevel = %d, want 2", user.VipLevel)
	}
}

// 当前登录用户购买后，会话里的用户副本同步刷新
func TestInvestSyncsSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	user := &model.User{ID: "u1", Balance: 300}
	seedUser(t, store, user)
	sessions := repository.NewSessionRepository(store)
	if err := sessions.SetCurrentUser(ctx, nil, user); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Invest(ctx, "u1", "basic-100"); err != nil {
		t.Fatal(err)
	}

	current, err := sessions.GetCurrentUser(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if current == nil || current.Balance != 200 {
		t.Errorf("会话用户未同步: %+v", current)
	}
}

func TestInvestUnknownPlanAndUser(t *testing.T) {
	ctx := context.Background()
	svc, store := newInvestEnv(t)
	seedUser(t, store, &model.User{ID: "u1", Balance: 300})

	if _, err := svc.Invest(ctx, "u1", "no-such-plan"); !errors.Is(err, model.ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound, 得到 %v", err)
	}
	if _, err := svc.Invest(ctx, "ghost", "basic-100"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound, 得到 %v", err)
	}
}
