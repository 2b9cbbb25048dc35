package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

func TestTokenCodec_IssueAndDecode(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	token, err := codec.Issue(&model.Claim{
		UserID: "user-1",
		Email:  "test@example.com",
		Name:   "Test User",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claim, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if claim.UserID != "user-1" {
		t.Errorf("claim userID = %q, want %q", claim.UserID, "user-1")
	}
	if claim.Email != "test@example.com" {
		t.Errorf("claim email = %q, want %q", claim.Email, "test@example.com")
	}
	if claim.Name != "Test User" {
		t.Errorf("claim name = %q, want %q", claim.Name, "Test User")
	}
}

func TestTokenCodec_Decode_ExpiredToken(t *testing.T) {
	// 負のlifetimeで即座に期限切れのトークンを発行する
	codec := NewTokenCodec("test-secret", -time.Minute)

	token, err := codec.Issue(&model.Claim{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = codec.Decode(token)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeTokenExpired {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeTokenExpired)
	}
}

func TestTokenCodec_Decode_WrongSecret(t *testing.T) {
	issuer := NewTokenCodec("secret-a", time.Hour)
	verifier := NewTokenCodec("secret-b", time.Hour)

	token, err := issuer.Issue(&model.Claim{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = verifier.Decode(token)
	if err == nil {
		t.Fatal("expected error for wrong secret, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeTokenInvalid {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeTokenInvalid)
	}
}

func TestTokenCodec_Decode_TamperedToken(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	token, err := codec.Issue(&model.Claim{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// ペイロード部分を改ざんする
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %d parts", len(parts))
	}
	tampered := parts[0] + ".eyJzdWIiOiJhdHRhY2tlciJ9." + parts[2]

	if _, err := codec.Decode(tampered); err == nil {
		t.Fatal("expected error for tampered token, got nil")
	}
}

func TestTokenCodec_Decode_Garbage(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Decode(input); err == nil {
			t.Errorf("Decode(%q) expected error, got nil", input)
		}
	}
}
