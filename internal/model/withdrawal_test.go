package model

import (
	"testing"
	"time"
)

// 固定在提现窗口内的时刻（10:00）
var inWindow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

func testUser(balance int64, withBank bool) *User {
	u := &User{ID: "u1", Balance: balance}
	if withBank {
		u.BankAccount = &BankAccount{
			AccountHolderName: "Ravi Kumar",
			BankName:          "State Bank",
			AccountNumber:     "123456789",
			IFSCCode:          "SBIN0001",
		}
	}
	return u
}

func TestIsWithdrawalWindowOpen(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	tests := []struct {
		hour int
		want bool
	}{
		{0, false},
		{8, false},
		{9, true}, // 开窗边界
		{12, true},
		{16, true},
		{17, false}, // 关窗边界，17 点整已关闭
		{23, false},
	}
	for _, tt := range tests {
		now := day.Add(time.Duration(tt.hour) * time.Hour)
		if got := IsWithdrawalWindowOpen(now); got != tt.want {
			t.Errorf("hour=%d: IsWithdrawalWindowOpen = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

// 校验顺序固定，每条用例只应命中列表里最靠前的那条规则
func TestValidateWithdrawal(t *testing.T) {
	outWindow := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		user    *User
		amount  int64
		now     time.Time
		wantErr error
	}{
		{"金额为零", testUser(1000, true), 0, inWindow, ErrInvalidAmount},
		{"金额为负", testUser(1000, true), -5, inWindow, ErrInvalidAmount},
		{"低于最低额", testUser(1000, true), 89, inWindow, ErrBelowMinimumWithdrawal},
		{"最低额边界可提", testUser(1000, true), 90, inWindow, nil},
		{"超过余额", testUser(100, true), 200, inWindow, ErrInsufficientBalance},
		{"余额恰好等于金额", testUser(100, true), 100, inWindow, nil},
		{"窗口关闭", testUser(1000, true), 100, outWindow, ErrOutsideWithdrawalWindow},
		{"未绑卡", testUser(1000, false), 100, inWindow, ErrMissingBankAccount},
		// 多条规则同时不满足时按顺序返回第一条：
		// 金额低于最低额且窗口关闭 -> 报低于最低额
		{"低于最低额优先于窗口", testUser(1000, true), 50, outWindow, ErrBelowMinimumWithdrawal},
		// 超过余额且未绑卡 -> 报余额不足
		{"余额不足优先于未绑卡", testUser(100, false), 200, inWindow, ErrInsufficientBalance},
		// 窗口关闭且未绑卡 -> 报窗口关闭
		{"窗口优先于未绑卡", testUser(1000, false), 100, outWindow, ErrOutsideWithdrawalWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithdrawal(tt.user, tt.amount, tt.now)
			if err != tt.wantErr {
				t.Errorf("ValidateWithdrawal = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusSuccessful, true},
		{WithdrawalStatusPending, WithdrawalStatusRejected, true},
		{WithdrawalStatusSuccessful, WithdrawalStatusRejected, false},
		{WithdrawalStatusRejected, WithdrawalStatusSuccessful, false},
		{WithdrawalStatusSuccessful, WithdrawalStatusSuccessful, false},
		{WithdrawalStatusPending, WithdrawalStatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransitionTo(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
