package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tilafu/affiliate-drive/internal/config"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:   "auth-test-secret",
			ExpireHours: 24,
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8},
		},
	}
	return NewAuthService(cfg, repository.NewAdminRepository(db)), db
}

func createTestAdmin(t *testing.T, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	now := time.Now()
	admin := &models.Admin{
		Username:     username,
		PasswordHash: string(hash),
		IsSuper:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestAdminLogin(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createTestAdmin(t, db, "admin", "secret1234")

	admin, token, expiresAt, err := svc.Login("admin", "secret1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("expected valid token, got %q (expires %s)", token, expiresAt)
	}
	if admin.LastLoginAt == nil {
		t.Fatalf("last_login_at should be stamped")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("ghost", "secret1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got %v", err)
	}
}

func TestAdminChangePassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, db, "admin", "secret1234")

	if err := svc.ChangePassword(admin.ID, "wrong", "another1234"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "secret1234", "tiny"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(404, "secret1234", "another1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "secret1234", "another1234"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var stored models.Admin
	if err := db.First(&stored, admin.ID).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	// 改密作废存量 Token
	if stored.TokenVersion != admin.TokenVersion+1 || stored.TokenInvalidBefore == nil {
		t.Fatalf("token version should rotate, got %+v", stored)
	}
	if _, _, _, err := svc.Login("admin", "another1234"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestParseJWTRejectsForgedToken(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, db, "admin", "secret1234")

	other := &AuthService{
		cfg: &config.Config{JWT: config.JWTConfig{SecretKey: "different-secret", ExpireHours: 24}},
	}
	forged, _, err := other.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate forged token failed: %v", err)
	}
	if _, err := svc.ParseJWT(forged); err == nil {
		t.Fatalf("token signed with wrong secret must be rejected")
	}
}
