package handler

import (
	"errors"
	"strconv"
	"strings"

	"investsystem/internal/config"
	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/model"
	"investsystem/internal/repository"
	"investsystem/internal/service"
	"investsystem/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
// 表现层只做参数解析和错误码映射，业务规则全部在 service 层
type Handler struct {
	userService     *service.UserService
	investService   *service.InvestService
	withdrawService *service.WithdrawService
	adminService    *service.AdminService
}

// NewHandler 创建处理器实例
func NewHandler(store repository.TxStore, locks lock.Factory, cfg *config.Config) *Handler {
	return &Handler{
		userService:     service.NewUserService(store),
		investService:   service.NewInvestService(store, locks, cfg),
		withdrawService: service.NewWithdrawService(store, locks, cfg),
		adminService:    service.NewAdminService(store, locks),
	}
}

// businessError 把业务错误映射成响应码
func businessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrPlanNotFound):
		response.BusinessError(c, response.CodePlanNotFound, err.Error())
	case errors.Is(err, model.ErrInsufficientBalance):
		response.BusinessError(c, response.CodeInsufficientBalance, err.Error())
	case errors.Is(err, model.ErrBelowMinimumWithdrawal):
		response.BusinessError(c, response.CodeBelowMinimum, err.Error())
	case errors.Is(err, model.ErrOutsideWithdrawalWindow):
		response.BusinessError(c, response.CodeWindowClosed, err.Error())
	case errors.Is(err, model.ErrMissingBankAccount):
		response.BusinessError(c, response.CodeMissingBankAccount, err.Error())
	case errors.Is(err, model.ErrInvalidAmount):
		response.ParamError(c, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		response.BusinessError(c, response.CodeUserNotFound, err.Error())
	case errors.Is(err, repository.ErrRequestNotFound):
		response.BusinessError(c, response.CodeRequestNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyResolved):
		response.BusinessError(c, response.CodeAlreadyResolved, err.Error())
	case errors.Is(err, service.ErrInvalidDecision), errors.Is(err, service.ErrInvalidField):
		response.BusinessError(c, response.CodeInvalidField, err.Error())
	case errors.Is(err, service.ErrLoginFailed), errors.Is(err, service.ErrAdminLoginFailed):
		response.BusinessError(c, response.CodeLoginFailed, err.Error())
	case errors.Is(err, service.ErrMobileRegistered):
		response.BusinessError(c, response.CodeMobileRegistered, err.Error())
	case errors.Is(err, service.ErrInvalidMobile),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrBankIncomplete):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 认证与会话
// ============================================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Mobile, req.Password)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, user)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Mobile, req.Password)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, user)
}

// Logout 退出登录（用户与管理员会话一并清空）
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context()); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"message": "已退出登录"})
}

// Session 查询当前会话
// GET /api/v1/auth/session
func (h *Handler) Session(c *gin.Context) {
	user, err := h.userService.CurrentUser(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	admin, err := h.userService.CurrentAdmin(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"user": user, "admin": admin})
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理员登录
// POST /api/v1/admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin, err := h.userService.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, admin)
}

// ============================================================
// 套餐与投资
// ============================================================

// ListPlans 套餐目录
// GET /api/v1/plans
func (h *Handler) ListPlans(c *gin.Context) {
	response.Success(c, h.investService.ListPlans())
}

// InvestRequest 投资请求
type InvestRequest struct {
	UserID string `json:"user_id" binding:"required"`
	PlanID string `json:"plan_id" binding:"required"`
}

// Invest 购买投资套餐
// POST /api/v1/invest/execute
//
// 扣余额、记投资、生成收益计划必须同时成功或同时失败，
// 同一用户的并发购买由用户锁串行化
func (h *Handler) Invest(c *gin.Context) {
	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	investment, err := h.investService.Invest(c.Request.Context(), req.UserID, req.PlanID)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, investment)
}

// ListInvestments 用户的投资记录
// GET /api/v1/invest/list?user_id=xxx
func (h *Handler) ListInvestments(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ParamError(c, "user_id 参数不能为空")
		return
	}

	investments, err := h.investService.ListUserInvestments(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, investments)
}

// ============================================================
// 提现
// ============================================================

// WithdrawRequest 提现申请请求
type WithdrawRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

// RequestWithdrawal 提交提现申请
// POST /api/v1/withdraw/request
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	request, err := h.withdrawService.Request(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, request)
}

// ListWithdrawals 用户的提现单
// GET /api/v1/withdraw/list?user_id=xxx
func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ParamError(c, "user_id 参数不能为空")
		return
	}

	withdrawals, err := h.withdrawService.ListUserWithdrawals(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, withdrawals)
}

// ============================================================
// 个人资料
// ============================================================

// SaveBankRequest 绑卡请求
type SaveBankRequest struct {
	UserID      string            `json:"user_id" binding:"required"`
	BankAccount model.BankAccount `json:"bank_account" binding:"required"`
}

// SaveBankAccount 绑定/更新银行卡
// POST /api/v1/profile/bank
func (h *Handler) SaveBankAccount(c *gin.Context) {
	var req SaveBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.SaveBankAccount(c.Request.Context(), req.UserID, req.BankAccount)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, user)
}

// ============================================================
// 管理端
// ============================================================

// ResolveWithdrawalRequest 提现审批请求
type ResolveWithdrawalRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Decision  string `json:"decision" binding:"required"` // successful / rejected
}

// ResolveWithdrawal 审批提现单
// POST /api/v1/admin/withdraw/resolve
func (h *Handler) ResolveWithdrawal(c *gin.Context) {
	var req ResolveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resolved, err := h.withdrawService.Resolve(
		c.Request.Context(), req.RequestID, strings.ToUpper(req.Decision))
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, resolved)
}

// SetUserFieldRequest 改账请求，value 传字符串以便把非数字输入挡在边界上
type SetUserFieldRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Field  string `json:"field" binding:"required"` // balance / earned / invested
	Value  string `json:"value" binding:"required"`
}

// SetUserField 管理员直接覆写用户资金字段
// POST /api/v1/admin/user/field
func (h *Handler) SetUserField(c *gin.Context) {
	var req SetUserFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	value, err := strconv.ParseInt(req.Value, 10, 64)
	if err != nil {
		response.BusinessError(c, response.CodeInvalidField, "字段值必须是数字")
		return
	}

	user, err := h.adminService.SetUserField(c.Request.Context(), req.UserID, req.Field, value)
	if err != nil {
		businessError(c, err)
		return
	}
	response.Success(c, user)
}

// AdminListUsers 全部用户
// GET /api/v1/admin/users
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, users)
}

// AdminListWithdrawals 全部提现单
// GET /api/v1/admin/withdrawals
func (h *Handler) AdminListWithdrawals(c *gin.Context) {
	withdrawals, err := h.withdrawService.ListAll(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, withdrawals)
}

// AdminStats 看板汇总
// GET /api/v1/admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, stats)
}
