package model

import (
	"time"
)

const (
	InvestmentStatusActive    = "ACTIVE"
	InvestmentStatusCompleted = "COMPLETED"
)

// Investment 投资记录
// 经济参数（金额、日收益、天数、总收益）在购买时从套餐快照而来，
// 之后目录变更不会追溯影响已有记录
type Investment struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	PlanID       string        `json:"plan_id"`
	Amount       int64         `json:"amount"`
	DailyIncome  int64         `json:"daily_income"`
	Days         int           `json:"days"`
	TotalIncome  int64         `json:"total_income"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Status       string        `json:"status"`
	DailyReturns []DailyReturn `json:"daily_returns"`
}

// DailyReturn 单日收益计划
// Credited 表示该笔收益是否已经记入用户的 earned/balance
type DailyReturn struct {
	Date     time.Time `json:"date"`
	Amount   int64     `json:"amount"`
	Credited bool      `json:"credited"`
}

// BuildDailyReturns 按套餐生成收益计划
// 共 plan.Days 条，日期从购买次日起逐日排列，金额为套餐日收益，全部未入账
func BuildDailyReturns(plan *InvestmentPlan, startDate time.Time) []DailyReturn {
	returns := make([]DailyReturn, 0, plan.Days)
	for i := 0; i < plan.Days; i++ {
		returns = append(returns, DailyReturn{
			Date:     startDate.AddDate(0, 0, i+1),
			Amount:   plan.DailyIncome,
			Credited: false,
		})
	}
	return returns
}

// AllCredited 收益是否已全部入账
func (inv *Investment) AllCredited() bool {
	for _, r := range inv.DailyReturns {
		if !r.Credited {
			return false
		}
	}
	return true
}
