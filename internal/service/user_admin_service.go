package service

import (
	"context"
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/cache"
	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"
)

// UserAdminService 后台用户管理
type UserAdminService struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	tierRepo    repository.TierConfigRepository
}

// NewUserAdminService 创建后台用户管理服务
func NewUserAdminService(userRepo repository.UserRepository, accountRepo repository.AccountRepository, tierRepo repository.TierConfigRepository) *UserAdminService {
	return &UserAdminService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		tierRepo:    tierRepo,
	}
}

// UserDetail 用户详情（含资金账户）
type UserDetail struct {
	User     *models.User     `json:"user"`
	Accounts []models.Account `json:"accounts"`
	Upliner  *models.User     `json:"upliner,omitempty"`
}

// List 分页查询用户
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Get 用户详情
func (s *UserAdminService) Get(userID uint) (*UserDetail, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	accounts, err := s.accountRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	detail := &UserDetail{User: user, Accounts: accounts}
	if user.UplinerID != nil {
		upliner, err := s.userRepo.GetByID(*user.UplinerID)
		if err != nil {
			return nil, err
		}
		detail.Upliner = upliner
	}
	return detail, nil
}

// SetTier 调整用户等级，等级须存在于配置表或内置等级
func (s *UserAdminService) SetTier(adminID, userID uint, tier string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	if normalized == "" {
		return nil, ErrTierUnknown
	}
	if !s.tierKnown(normalized) {
		return nil, ErrTierUnknown
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Tier == normalized {
		return user, nil
	}

	previous := user.Tier
	user.Tier = normalized
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	logger.Infow("user_tier_changed",
		"user_id", userID,
		"admin_id", adminID,
		"from", previous,
		"to", normalized,
	)
	return user, nil
}

// SetStatus 启用或禁用用户，禁用时作废全部已签发 Token
func (s *UserAdminService) SetStatus(adminID, userID uint, status string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized != constants.UserStatusActive && normalized != constants.UserStatusDisabled {
		return nil, ErrUserStatusInvalid
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.Status = normalized
	now := time.Now()
	user.UpdatedAt = now
	if normalized == constants.UserStatusDisabled {
		user.TokenVersion++
		user.TokenInvalidBefore = &now
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	logger.Warnw("user_status_changed", "user_id", userID, "admin_id", adminID, "status", normalized)
	return user, nil
}

func (s *UserAdminService) tierKnown(tier string) bool {
	for _, known := range KnownTierNames() {
		if known == tier {
			return true
		}
	}
	if s.tierRepo == nil {
		return false
	}
	config, err := s.tierRepo.GetByTierName(tier)
	return err == nil && config != nil
}
