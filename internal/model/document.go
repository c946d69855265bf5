package model

import (
	"time"
)

// ============================================================================
// 账本文档存储
// ============================================================================
//
// 整个系统的持久化状态就是六个逻辑键下的 JSON 文档：
// 用户、投资记录、提现单、管理员四个集合，外加两个会话指针。
// 键不存在等价于空集合 / 无会话。outbox 是附加的第七个键，
// 用于事务性消息投递，不属于六键契约本身。

const (
	DocKeyUsers        = "tata_users"
	DocKeyInvestments  = "tata_investments"
	DocKeyWithdrawals  = "tata_withdrawals"
	DocKeyAdmins       = "tata_admins"
	DocKeyCurrentUser  = "tata_current_user"
	DocKeyCurrentAdmin = "tata_current_admin"
	DocKeyOutbox       = "tata_outbox"
)

// LedgerDocument 键值文档表
// 一行一个逻辑键，值为 JSON 文本
type LedgerDocument struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:longtext;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LedgerDocument) TableName() string {
	return "ledger_document"
}
