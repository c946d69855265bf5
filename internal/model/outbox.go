package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// 业务事件类型，随生命周期操作写入 outbox
const (
	EventInvestmentCreated = "INVESTMENT_CREATED"
	EventWithdrawRequested = "WITHDRAW_REQUESTED"
	EventWithdrawResolved  = "WITHDRAW_RESOLVED"
	EventDailyReturnCredit = "DAILY_RETURN_CREDITED"
)

// OutboxMessage 待投递消息
// 与业务状态变更在同一事务内追加到 outbox 文档，由后台任务异步发往 Kafka，
// 保证事件不会在业务提交后丢失
type OutboxMessage struct {
	ID         string    `json:"id"`
	MessageKey string    `json:"message_key"`
	Topic      string    `json:"topic"`
	Payload    string    `json:"payload"`
	Status     string    `json:"status"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}
