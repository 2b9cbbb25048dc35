// Package auth はユーザー登録、パスワード認証、外部IdP認証、
// セッショントークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// dummyPasswordHash はアカウント未存在時に比較対象として使うダミーハッシュ。
// 未知のメールアドレスでもbcrypt比較を1回実行し、応答時間の差から
// アカウントの存在有無を推測されないようにする。
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Metrics は認証イベントのメトリクス記録インターフェース。
// nilを渡した場合は記録をスキップする。
type Metrics interface {
	RecordRegistration()
	RecordLoginSuccess(method string)
	RecordLoginFailure(method string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	identRepo repository.IdentityRepository
	external  ExternalVerifier
	codec     *TokenCodec
	metrics   Metrics
}

// NewService はServiceを生成する。
// metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	external ExternalVerifier,
	codec *TokenCodec,
	metrics Metrics,
) *Service {
	return &Service{
		userRepo:  userRepo,
		identRepo: identRepo,
		external:  external,
		codec:     codec,
		metrics:   metrics,
	}
}

// Register はパスワードによる新規ユーザー登録を行う。
// パスワードは一方向ハッシュのみ保存し、平文は保持しない。
// メールアドレスが登録済みの場合はDUPLICATE_EMAILを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, model.NewValidationError("名前を入力してください")
	}
	if email == "" {
		return nil, model.NewValidationError("メールアドレスを入力してください")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください", minPasswordLength))
	}

	// 事前チェック。一意性の最終保証はDBの制約に委ねる。
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}

	return user, nil
}

// LoginWithPassword はメールアドレスとパスワードで認証し、
// セッショントークンとユーザー情報を返す。
// メールアドレス未登録とパスワード不一致は区別せず、
// 常に同一のINVALID_CREDENTIALSを返す。
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (string, *model.User, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	// アカウント未存在・パスワード未設定でもダミーハッシュと比較を実行する
	hash := dummyPasswordHash
	if user != nil && user.HasPassword() {
		hash = user.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	if user == nil || !user.HasPassword() || compareErr != nil {
		slog.Warn("password login failed", slog.String("email", email))
		if s.metrics != nil {
			s.metrics.RecordLoginFailure("password")
		}
		return "", nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", "password"),
	)
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess("password")
	}

	return token, user, nil
}

// LoginWithGoogle はGoogleのIDトークンを検証して認証し、
// セッショントークンとユーザー情報を返す。
// 未登録ユーザーの場合はusersレコードとidentitiesレコードを同時に自動作成する。
// 同一メールアドレスのパスワードアカウントが既にある場合は
// そのアカウントにidentityを紐付けてログインする。
func (s *Service) LoginWithGoogle(ctx context.Context, credential string) (string, *model.User, error) {
	info, err := s.external.VerifyCredential(ctx, credential)
	if err != nil {
		slog.Warn("external credential verification failed", slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.RecordLoginFailure("google")
		}
		return "", nil, model.NewExternalAuthFailedError()
	}

	user, err := s.resolveExternalUser(ctx, info)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", "google"),
	)
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess("google")
	}

	return token, user, nil
}

// GetCurrentUser は指定IDのユーザーを取得する。
// セッショントークンから復元したユーザーIDの解決に使用する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// resolveExternalUser は検証済みの外部ユーザー情報をローカルユーザーに解決する。
// 1. identity一致 → 既存ユーザー
// 2. メールアドレス一致 → 既存アカウントにidentityを紐付け
// 3. どちらもなし → 新規作成（パスワードハッシュなし）
func (s *Service) resolveExternalUser(ctx context.Context, info *ExternalUserInfo) (*model.User, error) {
	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, info.Provider, info.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	if identity != nil {
		user, err := s.userRepo.FindByID(ctx, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return nil, model.NewUserNotFoundError()
		}
		return user, nil
	}

	now := time.Now()
	email := normalizeEmail(info.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if existing != nil {
		// 既存アカウントに外部IdPを紐付ける
		newIdentity := &model.Identity{
			ID:             uuid.New().String(),
			UserID:         existing.ID,
			Provider:       info.Provider,
			ProviderUserID: info.ProviderUserID,
			CreatedAt:      now,
		}
		if err := s.identRepo.Create(ctx, newIdentity); err != nil {
			return nil, fmt.Errorf("failed to link identity: %w", err)
		}
		slog.Info("identity linked to existing user",
			slog.String("user_id", existing.ID),
			slog.String("provider", info.Provider),
		)
		return existing, nil
	}

	// 新規ユーザー: usersレコードとidentitiesレコードを同時に作成
	newUser := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      info.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if newUser.Name == "" {
		newUser.Name = email
	}

	newIdentity := &model.Identity{
		ID:             uuid.New().String(),
		UserID:         newUser.ID,
		Provider:       info.Provider,
		ProviderUserID: info.ProviderUserID,
		CreatedAt:      now,
	}

	if err := s.userRepo.CreateWithIdentity(ctx, newUser, newIdentity); err != nil {
		return nil, err
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
		slog.String("email", newUser.Email),
		slog.String("provider", info.Provider),
	)

	return newUser, nil
}

// issueToken はユーザーのクレームからセッショントークンを発行する。
func (s *Service) issueToken(user *model.User) (string, error) {
	token, err := s.codec.Issue(&model.Claim{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
