package model

import (
	"errors"
)

// ============================================================================
// 投资套餐目录（静态，编译进程序，不落库）
// ============================================================================

var ErrPlanNotFound = errors.New("投资套餐不存在")

// InvestmentPlan 投资套餐
// TotalIncome 必须等于 DailyIncome * Days，购买时会把经济参数快照进投资记录，
// 之后修改目录不影响已有投资
type InvestmentPlan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Investment  int64  `json:"investment"`   // 投入金额
	DailyIncome int64  `json:"daily_income"` // 每日收益
	Days        int    `json:"days"`         // 收益天数
	TotalIncome int64  `json:"total_income"` // 总收益 = DailyIncome * Days
	VipRequired int    `json:"vip_required"` // 购买所需 VIP 等级
	IsHot       bool   `json:"is_hot,omitempty"`
}

var investmentPlans = []*InvestmentPlan{
	{
		ID:          "basic-100",
		Name:        "Starter Plan",
		Investment:  100,
		DailyIncome: 50,
		Days:        7,
		TotalIncome: 350,
		VipRequired: 0,
	},
	{
		ID:          "vip-250",
		Name:        "VIP Silver",
		Investment:  250,
		DailyIncome: 150,
		Days:        4,
		TotalIncome: 600,
		VipRequired: 1,
		IsHot:       true,
	},
	{
		ID:          "vip-800",
		Name:        "VIP Gold",
		Investment:  800,
		DailyIncome: 400,
		Days:        4,
		TotalIncome: 1600,
		VipRequired: 2,
		IsHot:       true,
	},
}

// ListPlans 返回全部套餐
func ListPlans() []*InvestmentPlan {
	plans := make([]*InvestmentPlan, len(investmentPlans))
	copy(plans, investmentPlans)
	return plans
}

// FindPlan 按 ID 查找套餐
func FindPlan(id string) (*InvestmentPlan, error) {
	for _, p := range investmentPlans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPlanNotFound
}

// ============================================================================
// VIP 等级规则
// ============================================================================

// VIP 等级门槛（累计投资额）
// 【注意】这是唯一的门槛表，投资购买和管理员改账都必须走 VipLevelFor，
// 不允许在别处复制这组常量
const (
	VipGoldThreshold   = 800
	VipSilverThreshold = 250
)

// VipLevelFor 根据累计投资额计算 VIP 等级
func VipLevelFor(totalInvestment int64) int {
	if totalInvestment >= VipGoldThreshold {
		return 2
	}
	if totalInvestment >= VipSilverThreshold {
		return 1
	}
	return 0
}

// VipLevelName VIP 等级展示名
func VipLevelName(level int) string {
	switch level {
	case 1:
		return "VIP Silver"
	case 2:
		return "VIP Gold"
	default:
		return "Basic"
	}
}
