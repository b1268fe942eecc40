package service

import (
	"fmt"
	"unicode"

	"github.com/tilafu/affiliate-drive/internal/config"
)

type passwordPolicyError struct {
	message string
}

func (e passwordPolicyError) Error() string {
	return e.message
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength <= 0 &&
		!policy.RequireUpper &&
		!policy.RequireLower &&
		!policy.RequireNumber &&
		!policy.RequireSpecial {
		return nil
	}

	if policy.MinLength > 0 {
		if len([]rune(password)) < policy.MinLength {
			return passwordPolicyError{message: fmt.Sprintf("密码长度不能少于 %d 位", policy.MinLength)}
		}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return passwordPolicyError{message: "密码必须包含大写字母"}
	}
	if policy.RequireLower && !hasLower {
		return passwordPolicyError{message: "密码必须包含小写字母"}
	}
	if policy.RequireNumber && !hasNumber {
		return passwordPolicyError{message: "密码必须包含数字"}
	}
	if policy.RequireSpecial && !hasSpecial {
		return passwordPolicyError{message: "密码必须包含特殊字符"}
	}

	return nil
}
