package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"investsystem/internal/config"
	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
	"investsystem/pkg/idgen"
)

// InvestService 投资生命周期
// 购买套餐：扣余额、累计投资额、升 VIP、生成逐日收益计划，
// 全部写入在同一事务内提交
type InvestService struct {
	store       repository.TxStore
	locks       lock.Factory
	cfg         *config.Config
	userRepo    *repository.UserRepository
	investRepo  *repository.InvestmentRepository
	sessionRepo *repository.SessionRepository
	outboxRepo  *repository.OutboxRepository
	now         func() time.Time
}

func NewInvestService(store repository.TxStore, locks lock.Factory, cfg *config.Config) *InvestService {
	return &InvestService{
		store:       store,
		locks:       locks,
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(store),
		investRepo:  repository.NewInvestmentRepository(store),
		sessionRepo: repository.NewSessionRepository(store),
		outboxRepo:  repository.NewOutboxRepository(store),
		now:         time.Now,
	}
}

// ListPlans 套餐目录
func (s *InvestService) ListPlans() []*model.InvestmentPlan {
	return model.ListPlans()
}

// Invest 购买投资套餐
//
// 余额不足时不产生任何可观测的变更；余额恰好等于套餐价格时允许购买。
// VIP 等级在这条路径上只升不降（门槛表见 model.VipLevelFor）
func (s *InvestService) Invest(ctx context.Context, userID, planID string) (*model.Investment, error) {
	plan, err := model.FindPlan(planID)
	if err != nil {
		return nil, err
	}

	userLock := s.locks.UserLock(userID, fmt.Sprintf("%d", idgen.NextID()))
	if err := userLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer userLock.Unlock(ctx)

	startDate := s.now()
	investment := &model.Investment{
		ID:           idgen.GenerateInvestmentNo(),
		UserID:       userID,
		PlanID:       plan.ID,
		Amount:       plan.Investment,
		DailyIncome:  plan.DailyIncome,
		Days:         plan.Days,
		TotalIncome:  plan.TotalIncome,
		StartDate:    startDate,
		EndDate:      startDate.AddDate(0, 0, plan.Days),
		Status:       model.InvestmentStatusActive,
		DailyReturns: model.BuildDailyReturns(plan, startDate),
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Balance < plan.Investment {
			return model.ErrInsufficientBalance
		}

		updated, err := s.userRepo.Update(ctx, tx, userID, func(u *model.User) error {
			u.Balance -= plan.Investment
			u.Invested += plan.Investment
			u.TotalInvestment += plan.Investment
			if level := model.VipLevelFor(u.TotalInvestment); level > u.VipLevel {
				u.VipLevel = level
			}
			return nil
		})
		if err != nil {
			return err
		}

		if err := s.investRepo.Append(ctx, tx, investment); err != nil {
			return err
		}
		if err := s.sessionRepo.SyncUser(ctx, tx, updated); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, investment, updated)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[InvestService] 投资成功: id=%s, userID=%s, planID=%s, amount=%d",
		investment.ID, userID, plan.ID, plan.Investment)
	return investment, nil
}

func (s *InvestService) enqueueEvent(ctx context.Context, tx repository.Store, inv *model.Investment, user *model.User) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":         model.EventInvestmentCreated,
		"investment_id": inv.ID,
		"user_id":       inv.UserID,
		"plan_id":       inv.PlanID,
		"amount":        inv.Amount,
		"vip_level":     user.VipLevel,
		"start_date":    inv.StartDate.Format(time.RFC3339),
	})
	return s.outboxRepo.Append(ctx, tx, &model.OutboxMessage{
		ID:         idgen.GenerateMessageNo(),
		MessageKey: inv.ID,
		Topic:      s.cfg.Kafka.Topic.InvestEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
		CreatedAt:  s.now(),
	})
}

// ListUserInvestments 用户的投资记录，开始时间倒序
func (s *InvestService) ListUserInvestments(ctx context.Context, userID string) ([]*model.Investment, error) {
	return s.investRepo.ListByUserID(ctx, nil, userID)
}
