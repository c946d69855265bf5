package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investsystem/internal/model"
	"investsystem/internal/repository"
	"investsystem/pkg/idgen"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMobileRegistered = errors.New("手机号已注册")
	ErrInvalidMobile    = errors.New("手机号必须是10位数字")
	ErrPasswordTooShort = errors.New("密码长度不能少于6位")
	ErrLoginFailed      = errors.New("手机号或密码错误")
	ErrAdminLoginFailed = errors.New("用户名或密码错误")
	ErrBankIncomplete   = errors.New("银行卡信息不完整")
)

// UserService 账户与会话
// 注册/登录/绑卡，以及当前用户、当前管理员两个会话指针的读写
type UserService struct {
	store       repository.TxStore
	userRepo    *repository.UserRepository
	adminRepo   *repository.AdminRepository
	sessionRepo *repository.SessionRepository
	now         func() time.Time
}

func NewUserService(store repository.TxStore) *UserService {
	return &UserService{
		store:       store,
		userRepo:    repository.NewUserRepository(store),
		adminRepo:   repository.NewAdminRepository(store),
		sessionRepo: repository.NewSessionRepository(store),
		now:         time.Now,
	}
}

func validMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register 注册新用户并建立会话
// 密码只存 bcrypt 哈希，新用户各项资金字段为零、VIP 为 0
func (s *UserService) Register(ctx context.Context, name, mobile, password string) (*model.User, error) {
	if name == "" {
		return nil, errors.New("姓名不能为空")
	}
	if !validMobile(mobile) {
		return nil, ErrInvalidMobile
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}

	user := &model.User{
		ID:           idgen.GenerateUserNo(),
		Name:         name,
		Mobile:       mobile,
		PasswordHash: string(hash),
		VipLevel:     model.VipLevelFor(0),
		CreatedAt:    s.now(),
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := s.userRepo.GetByMobile(ctx, tx, mobile); err == nil {
			return ErrMobileRegistered
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.sessionRepo.SetCurrentUser(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login 手机号+密码登录
// bcrypt 比较自带常数时间语义，登录失败不区分"用户不存在"和"密码错误"
func (s *UserService) Login(ctx context.Context, mobile, password string) (*model.User, error) {
	user, err := s.userRepo.GetByMobile(ctx, nil, mobile)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrLoginFailed
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrLoginFailed
	}
	if err := s.sessionRepo.SetCurrentUser(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminLogin 管理员登录（空库时默认管理员在首次读取时播种）
func (s *UserService) AdminLogin(ctx context.Context, username, password string) (*model.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrAdminLoginFailed
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, ErrAdminLoginFailed
	}
	if err := s.sessionRepo.SetCurrentAdmin(ctx, nil, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Logout 同时清空用户会话与管理员会话
func (s *UserService) Logout(ctx context.Context) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.sessionRepo.SetCurrentUser(ctx, tx, nil); err != nil {
			return err
		}
		return s.sessionRepo.SetCurrentAdmin(ctx, tx, nil)
	})
}

func (s *UserService) CurrentUser(ctx context.Context) (*model.User, error) {
	return s.sessionRepo.GetCurrentUser(ctx, nil)
}

func (s *UserService) CurrentAdmin(ctx context.Context) (*model.Admin, error) {
	return s.sessionRepo.GetCurrentAdmin(ctx, nil)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, nil, userID)
}

// SaveBankAccount 绑定/更新银行卡
// 提现单里存的是申请时刻的快照，改卡不影响已有提现单
func (s *UserService) SaveBankAccount(ctx context.Context, userID string, bank model.BankAccount) (*model.User, error) {
	if bank.AccountHolderName == "" || bank.BankName == "" || bank.AccountNumber == "" || bank.IFSCCode == "" {
		return nil, ErrBankIncomplete
	}

	var updated *model.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		updated, err = s.userRepo.Update(ctx, tx, userID, func(u *model.User) error {
			copied := bank
			u.BankAccount = &copied
			return nil
		})
		if err != nil {
			return err
		}
		return s.sessionRepo.SyncUser(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
