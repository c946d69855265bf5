package model

import (
	"time"
)

// User 用户账户
// 资金字段均为整数卢比，余额的正确性由 service 层的前置校验保证，
// 管理员手工修改是唯一可以绕过校验的入口
type User struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Mobile          string       `json:"mobile"`        // 10位手机号，登录凭证
	PasswordHash    string       `json:"password_hash"` // bcrypt 哈希，不存明文
	Balance         int64        `json:"balance"`
	Invested        int64        `json:"invested"`
	Earned          int64        `json:"earned"`
	TotalInvestment int64        `json:"total_investment"`
	VipLevel        int          `json:"vip_level"` // 始终等于 VipLevelFor(TotalInvestment)
	BankAccount     *BankAccount `json:"bank_account,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// BankAccount 银行卡信息
// 嵌在用户里，提现时会整体快照进提现单，后续改卡不影响已有提现单
type BankAccount struct {
	AccountHolderName string `json:"account_holder_name"`
	BankName          string `json:"bank_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
}

// Admin 管理员账户
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
