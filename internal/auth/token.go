package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskdeck/internal/model"
)

// TokenCodec は署名付きセッショントークンの発行と検証を提供する。
// トークンはHS256署名のJWTで、サーバー側に状態を持たない。
// 有効性は署名と有効期限のみで判定され、期限前の失効手段はない。
type TokenCodec struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenCodec はTokenCodecを生成する。
// secretはプロセス全体で共有する署名鍵、lifetimeは発行からの有効期間。
func NewTokenCodec(secret string, lifetime time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:   []byte(secret),
		lifetime: lifetime,
	}
}

// Issue はクレームをエンコードした署名付きトークンを発行する。
// subにユーザーID、有効期限は発行時刻からlifetime後の絶対時刻。
func (c *TokenCodec) Issue(claim *model.Claim) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   claim.UserID,
		"email": claim.Email,
		"name":  claim.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(c.lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証しクレームを復元する。
// 期限切れの場合はTOKEN_EXPIRED、署名不一致や構造不正の場合は
// TOKEN_INVALIDのmodel.APIErrorを返す。
func (c *TokenCodec) Decode(tokenString string) (*model.Claim, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// 署名方式がHS256系であることを検証する
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		return nil, model.NewTokenInvalidError()
	}
	if !token.Valid {
		return nil, model.NewTokenInvalidError()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.NewTokenInvalidError()
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, model.NewTokenInvalidError()
	}

	claim := &model.Claim{UserID: sub}
	if email, ok := claims["email"].(string); ok {
		claim.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		claim.Name = name
	}

	return claim, nil
}
