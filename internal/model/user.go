// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはパスワード登録ユーザーのみ保持し、
// Google認証で作成されたユーザーでは空文字列になる。
// APIレスポンスには決して含めない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワードログインが可能なユーザーかどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
// ユーザーは password_hash と identity の少なくとも一方を必ず持つ。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Claim は認証成功後に確定したユーザーの最小限の事実を表す。
// セッショントークンにエンコードされ、リクエストごとに復元される。
type Claim struct {
	UserID string
	Email  string
	Name   string
}
