package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"investsystem/internal/config"
	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
	"investsystem/pkg/idgen"
)

// 本轮没有可入账的收益，直接回滚空事务
var errNothingMatured = errors.New("没有到期收益")

// DailyReturnCreditJob 每日收益入账任务
//
// 投资购买时生成的收益计划只是"应得"，这个任务把到期的计划款真正记入
// 用户的 earned 和 balance。一条收益在到期日之后的首次扫描被入账，
// 且只入账一次（credited 标记），扫描间隔只影响延迟不影响金额。
// 全部收益入账后投资记录置为 COMPLETED
type DailyReturnCreditJob struct {
	store       repository.TxStore
	locks       lock.Factory
	cfg         *config.Config
	userRepo    *repository.UserRepository
	investRepo  *repository.InvestmentRepository
	sessionRepo *repository.SessionRepository
	outboxRepo  *repository.OutboxRepository
	stopCh      chan struct{}
	interval    time.Duration
	now         func() time.Time
}

func NewDailyReturnCreditJob(store repository.TxStore, locks lock.Factory, cfg *config.Config) *DailyReturnCreditJob {
	interval := time.Duration(cfg.Business.CreditScanIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &DailyReturnCreditJob{
		store:       store,
		locks:       locks,
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(store),
		investRepo:  repository.NewInvestmentRepository(store),
		sessionRepo: repository.NewSessionRepository(store),
		outboxRepo:  repository.NewOutboxRepository(store),
		stopCh:      make(chan struct{}),
		interval:    interval,
		now:         time.Now,
	}
}

func (j *DailyReturnCreditJob) Start(ctx context.Context) {
	log.Println("[DailyReturnCreditJob] 收益入账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[DailyReturnCreditJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[DailyReturnCreditJob] 任务停止")
			return
		case <-ticker.C:
			j.CreditMaturedReturns(ctx)
		}
	}
}

func (j *DailyReturnCreditJob) Stop() {
	close(j.stopCh)
}

// CreditMaturedReturns 扫描全部进行中的投资，入账到期收益
func (j *DailyReturnCreditJob) CreditMaturedReturns(ctx context.Context) {
	investments, err := j.investRepo.ListActive(ctx, nil)
	if err != nil {
		log.Printf("[DailyReturnCreditJob] 查询投资记录失败: %v", err)
		return
	}

	for _, inv := range investments {
		if err := j.creditInvestment(ctx, inv.ID, inv.UserID); err != nil {
			log.Printf("[DailyReturnCreditJob] 入账失败: investmentID=%s, err=%v", inv.ID, err)
		}
	}
}

func (j *DailyReturnCreditJob) creditInvestment(ctx context.Context, investmentID, userID string) error {
	userLock := j.locks.UserLock(userID, fmt.Sprintf("%d", idgen.NextID()))
	if err := userLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return err
	}
	defer userLock.Unlock(ctx)

	var creditTotal int64
	err := j.store.Transaction(ctx, func(tx repository.Store) error {
		now := j.now()
		creditTotal = 0

		updatedInv, err := j.investRepo.Update(ctx, tx, investmentID, func(v *model.Investment) error {
			for i := range v.DailyReturns {
				r := &v.DailyReturns[i]
				if r.Credited || r.Date.After(now) {
					continue
				}
				r.Credited = true
				creditTotal += r.Amount
			}
			if creditTotal == 0 {
				return errNothingMatured
			}
			if v.AllCredited() {
				v.Status = model.InvestmentStatusCompleted
			}
			return nil
		})
		if err != nil {
			return err
		}

		updatedUser, err := j.userRepo.Update(ctx, tx, userID, func(u *model.User) error {
			u.Earned += creditTotal
			u.Balance += creditTotal
			return nil
		})
		if err != nil {
			return err
		}
		if err := j.sessionRepo.SyncUser(ctx, tx, updatedUser); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"event":         model.EventDailyReturnCredit,
			"investment_id": updatedInv.ID,
			"user_id":       userID,
			"amount":        creditTotal,
			"status":        updatedInv.Status,
		})
		return j.outboxRepo.Append(ctx, tx, &model.OutboxMessage{
			ID:         idgen.GenerateMessageNo(),
			MessageKey: updatedInv.ID,
			Topic:      j.cfg.Kafka.Topic.InvestEvents,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
			CreatedAt:  j.now(),
		})
	})
	if errors.Is(err, errNothingMatured) {
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("[DailyReturnCreditJob] 收益入账: investmentID=%s, userID=%s, amount=%d",
		investmentID, userID, creditTotal)
	return nil
}
