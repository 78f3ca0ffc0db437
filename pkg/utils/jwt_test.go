package utils

import (
	"testing"

	"clubhub-backend/pkg/models"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := &models.User{ID: "user-1", Email: "ada@club.test", Name: "Ada", Role: models.RoleAdmin}

	access, refresh, expiresIn, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	if expiresIn == 0 {
		t.Error("expires_in not set")
	}

	claims, err := svc.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("claims identity = %s/%s", claims.UserID, claims.Email)
	}
	if claims.Role != string(models.RoleAdmin) {
		t.Errorf("role claim = %q, want admin", claims.Role)
	}

	restored := UserFromClaims(claims)
	if !restored.IsAdmin() {
		t.Error("restored user lost admin role")
	}

	// 刷新令牌不能当访问令牌用，反之亦然
	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "ada@club.test", Role: models.RoleUser}

	access, _, _, err := NewJWTService("secret-a").GenerateTokenPair(user)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewJWTService("secret-b").ValidateToken(access); err == nil {
		t.Error("token signed with a different key was accepted")
	}
	if _, err := NewJWTService("secret-a").ValidateToken("garbage"); err == nil {
		t.Error("malformed token was accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Error("valid password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}

	if _, err := HashPassword("short"); err == nil {
		t.Error("short password accepted")
	}
}
