package model

import (
	"errors"
	"time"
)

const (
	WithdrawalStatusPending    = "PENDING"
	WithdrawalStatusSuccessful = "SUCCESSFUL"
	WithdrawalStatusRejected   = "REJECTED"
)

// 提现单只允许从 PENDING 单向流转到终态，终态不允许再变更
var validWithdrawalTransitions = map[string][]string{
	WithdrawalStatusPending: {WithdrawalStatusSuccessful, WithdrawalStatusRejected},
}

// CanTransitionTo 校验提现单状态流转是否合法
func CanTransitionTo(currentStatus, targetStatus string) bool {
	for _, s := range validWithdrawalTransitions[currentStatus] {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// WithdrawalRequest 提现申请单
// 申请时立即从余额扣款（乐观扣款），管理员拒绝时原额退回；
// BankAccount 是申请时刻的快照，不跟随用户后续改卡
type WithdrawalRequest struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Amount        int64       `json:"amount"`
	RequestDate   time.Time   `json:"request_date"`
	Status        string      `json:"status"`
	BankAccount   BankAccount `json:"bank_account"`
	ProcessedDate *time.Time  `json:"processed_date,omitempty"`
}

// ============================================================================
// 提现规则
// ============================================================================

// MinWithdrawalAmount 最低提现金额
const MinWithdrawalAmount = 90

// 提现窗口：本地时间 [9, 17) 点
const (
	WithdrawalWindowOpenHour  = 9
	WithdrawalWindowCloseHour = 17
)

var (
	ErrInvalidAmount           = errors.New("提现金额必须为正数")
	ErrBelowMinimumWithdrawal  = errors.New("低于最低提现金额 90")
	ErrInsufficientBalance     = errors.New("余额不足")
	ErrOutsideWithdrawalWindow = errors.New("提现窗口未开放（本地时间 9:00-17:00）")
	ErrMissingBankAccount      = errors.New("未绑定银行卡")
)

// IsWithdrawalWindowOpen 提现窗口是否开放
// 以传入时刻所在时区的小时数判断，调用方统一传服务器本地时间
func IsWithdrawalWindowOpen(now time.Time) bool {
	hour := now.Hour()
	return hour >= WithdrawalWindowOpenHour && hour < WithdrawalWindowCloseHour
}

// ValidateWithdrawal 校验提现申请
// 按固定顺序检查，返回第一条不满足的规则：
// 金额非正 -> 低于最低额 -> 超过余额 -> 窗口关闭 -> 未绑卡
func ValidateWithdrawal(user *User, amount int64, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount < MinWithdrawalAmount {
		return ErrBelowMinimumWithdrawal
	}
	if amount > user.Balance {
		return ErrInsufficientBalance
	}
	if !IsWithdrawalWindowOpen(now) {
		return ErrOutsideWithdrawalWindow
	}
	if user.BankAccount == nil {
		return ErrMissingBankAccount
	}
	return nil
}
