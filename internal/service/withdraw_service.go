package service

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

var (
	ErrAlreadyResolved = errors.New("提现单已处理，不能重复审批")
	ErrInvalidDecision = errors.New("审批结果只能是通过或拒绝")
)

// WithdrawService 提现生命周期
//
// 申请时立即扣减余额（乐观扣款），管理员通过只是确认行外转账已完成，
// 不再动余额；拒绝则原额退回。审批只允许处理 PENDING 状态的单子
type WithdrawService struct {
	store        repository.TxStore
	locks        lock.Factory
	cfg          *config.Config
	userRepo     *repository.UserRepository
	withdrawRepo *repository.WithdrawalRepository
	sessionRepo  *repository.SessionRepository
	outboxRepo   *repository.OutboxRepository
	now          func() time.Time
}

func NewWithdrawService(store repository.TxStore, locks lock.Factory, cfg *config.Config) *WithdrawService {
	return &WithdrawService{
		store:        store,
		locks:        locks,
		cfg:          cfg,
		userRepo:     repository.NewUserRepository(store),
		withdrawRepo: repository.NewWithdrawalRepository(store),
		sessionRepo:  repository.NewSessionRepository(store),
		outboxRepo:   repository.NewOutboxRepository(store),
		now:          time.Now,
	}
}

// Request 提交提现申请
// 校验顺序固定：金额非正 -> 低于最低额 -> 超过余额 -> 窗口关闭 -> 未绑卡
func (s *WithdrawService) Request(ctx context.Context, userID string, amount int64) (*model.WithdrawalRequest, error) {
	userLock := s.locks.UserLock(userID, fmt.Sprintf("%d", idgen.NextID()))
	if err := userLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer userLock.Unlock(ctx)

	var request *model.WithdrawalRequest
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := model.ValidateWithdrawal(user, amount, s.now()); err != nil {
			return err
		}

		updated, err := s.userRepo.Update(ctx, tx, userID, func(u *model.User) error {
			u.Balance -= amount
			return nil
		})
		if err != nil {
			return err
		}

		request = &model.WithdrawalRequest{
			ID:          idgen.GenerateWithdrawalNo(),
			UserID:      userID,
			Amount:      amount,
			RequestDate: s.now(),
			Status:      model.WithdrawalStatusPending,
			BankAccount: *user.BankAccount,
		}
		if err := s.withdrawRepo.Append(ctx, tx, request); err != nil {
			return err
		}
		if err := s.sessionRepo.SyncUser(ctx, tx, updated); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, model.EventWithdrawRequested, request)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[WithdrawService] 提现申请成功: id=%s, userID=%s, amount=%d",
		request.ID, userID, amount)
	return request, nil
}

// Resolve 管理员审批提现单
// decision 只接受 SUCCESSFUL / REJECTED；非 PENDING 的单子拒绝重复审批。
// 拒绝时把金额原路退回用户余额
func (s *WithdrawService) Resolve(ctx context.Context, requestID, decision string) (*model.WithdrawalRequest, error) {
	if decision != model.WithdrawalStatusSuccessful && decision != model.WithdrawalStatusRejected {
		return nil, ErrInvalidDecision
	}

	// 先查出属主，锁语义和用户侧生命周期操作保持一致
	existing, err := s.withdrawRepo.GetByID(ctx, nil, requestID)
	if err != nil {
		return nil, err
	}

	userLock := s.locks.UserLock(existing.UserID, fmt.Sprintf("%d", idgen.NextID()))
	if err := userLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer userLock.Unlock(ctx)

	var resolved *model.WithdrawalRequest
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		processedAt := s.now()
		var txErr error
		resolved, txErr = s.withdrawRepo.Update(ctx, tx, requestID, func(w *model.WithdrawalRequest) error {
			if !model.CanTransitionTo(w.Status, decision) {
				return ErrAlreadyResolved
			}
			w.Status = decision
			w.ProcessedDate = &processedAt
			return nil
		})
		if txErr != nil {
			return txErr
		}

		if decision == model.WithdrawalStatusRejected {
			updated, err := s.userRepo.Update(ctx, tx, resolved.UserID, func(u *model.User) error {
				u.Balance += resolved.Amount
				return nil
			})
			if err != nil {
				return err
			}
			if err := s.sessionRepo.SyncUser(ctx, tx, updated); err != nil {
				return err
			}
		}
		return s.enqueueEvent(ctx, tx, model.EventWithdrawResolved, resolved)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[WithdrawService] 提现审批完成: id=%s, decision=%s, amount=%d",
		requestID, decision, resolved.Amount)
	return resolved, nil
}

func (s *WithdrawService) enqueueEvent(ctx context.Context, tx repository.Store, event string, w *model.WithdrawalRequest) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":      event,
		"request_id": w.ID,
		"user_id":    w.UserID,
		"amount":     w.Amount,
		"status":     w.Status,
	})
	return s.outboxRepo.Append(ctx, tx, &model.OutboxMessage{
		ID:         idgen.GenerateMessageNo(),
		MessageKey: w.ID,
		Topic:      s.cfg.Kafka.Topic.WithdrawEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
		CreatedAt:  s.now(),
	})
}

// ListUserWithdrawals 用户的提现单，申请时间倒序
func (s *WithdrawService) ListUserWithdrawals(ctx context.Context, userID string) ([]*model.WithdrawalRequest, error) {
	return s.withdrawRepo.ListByUserID(ctx, nil, userID)
}

// ListAll 全部提现单（管理端）
func (s *WithdrawService) ListAll(ctx context.Context) ([]*model.WithdrawalRequest, error) {
	return s.withdrawRepo.GetAll(ctx, nil)
}
