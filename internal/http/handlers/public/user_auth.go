package public

import (
	"errors"
	"time"

	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Register(req.Email, req.Password, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, service.ErrInvalidEmail.Error(), nil)
		case errors.Is(err, service.ErrEmailExists):
			respondError(c, response.CodeBadRequest, service.ErrEmailExists.Error(), nil)
		case errors.Is(err, service.ErrReferralCodeBad):
			respondError(c, response.CodeBadRequest, service.ErrReferralCodeBad.Error(), nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "注册失败", err)
		}
		return
	}

	response.Success(c, buildLoginResult(user, token, expiresAt))
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.LoginWithRememberMe(req.Email, req.Password, req.RememberMe)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, service.ErrInvalidCredentials.Error(), nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeUnauthorized, service.ErrUserDisabled.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "登录失败", err)
		}
		return
	}

	response.Success(c, buildLoginResult(user, token, expiresAt))
}

// ChangeUserPasswordRequest 修改密码请求
type ChangeUserPasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangeUserPassword 登录态修改密码
func (h *Handler) ChangeUserPassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ChangeUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	if err := h.UserAuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, service.ErrNotFound.Error(), nil)
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, service.ErrInvalidPassword.Error(), nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "修改密码失败", err)
		}
		return
	}

	response.SuccessWithMsg(c, "密码已更新", gin.H{"changed": true})
}

// UpdateUserProfileRequest 更新资料请求
type UpdateUserProfileRequest struct {
	Nickname *string `json:"nickname"`
}

// UpdateUserProfile 更新用户资料
func (h *Handler) UpdateUserProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	user, err := h.UserAuthService.UpdateProfile(userID, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, service.ErrNotFound.Error(), nil)
		case errors.Is(err, service.ErrProfileEmpty):
			respondError(c, response.CodeBadRequest, service.ErrProfileEmpty.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "更新资料失败", err)
		}
		return
	}

	response.Success(c, buildUserView(user))
}

func buildLoginResult(user *models.User, token string, expiresAt time.Time) gin.H {
	return gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       buildUserView(user),
	}
}

func buildUserView(user *models.User) gin.H {
	if user == nil {
		return gin.H{}
	}
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"display_name":  user.DisplayName,
		"tier":          user.Tier,
		"referral_code": user.ReferralCode,
		"status":        user.Status,
		"created_at":    user.CreatedAt,
		"last_login_at": user.LastLoginAt,
	}
}
