package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// googleIssuers はGoogleのIDトークンで許容されるissuer値。
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// ExternalUserInfo は外部IdPの署名付きクレデンシャルから取得したユーザー情報を表す。
type ExternalUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google" 等
}

// ExternalVerifier は外部IdPクレデンシャル検証のインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type ExternalVerifier interface {
	// VerifyCredential はIdPが発行した署名付きクレデンシャルを検証し、
	// ユーザー情報を取得する。
	VerifyCredential(ctx context.Context, credential string) (*ExternalUserInfo, error)
}

// GoogleVerifierConfig はGoogle IDトークン検証の設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogleのtokeninfoエンドポイントを使ってIDトークンを検証する。
// 署名検証はGoogle側で行われ、こちらではissuer/audience/有効期限を確認する。
type GoogleVerifier struct {
	config GoogleVerifierConfig
}

// NewGoogleVerifier はGoogleVerifierを生成する。
func NewGoogleVerifier(config GoogleVerifierConfig) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultGoogleTokenInfoURL
	}
	return &GoogleVerifier{config: config}
}

// googleTokenInfo はGoogleのtokeninfoエンドポイントのレスポンス。
type googleTokenInfo struct {
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   string `json:"exp"`
}

// VerifyCredential はGoogleのIDトークンを検証し、ユーザー情報を取得する。
// トークンが不正・期限切れ、またはissuer/audienceが想定外の場合はエラーを返す。
func (v *GoogleVerifier) VerifyCredential(ctx context.Context, credential string) (*ExternalUserInfo, error) {
	info, err := v.fetchTokenInfo(ctx, credential)
	if err != nil {
		return nil, err
	}

	if !googleIssuers[info.Iss] {
		return nil, fmt.Errorf("unexpected issuer: %s", info.Iss)
	}
	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("audience mismatch")
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in token info")
	}
	if info.Email == "" {
		return nil, fmt.Errorf("empty email in token info")
	}

	exp, err := strconv.ParseInt(info.Exp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid exp in token info: %w", err)
	}
	if time.Now().Unix() >= exp {
		return nil, fmt.Errorf("token expired")
	}

	return &ExternalUserInfo{
		ProviderUserID: info.Sub,
		Email:          info.Email,
		Name:           info.Name,
		Provider:       "google",
	}, nil
}

// fetchTokenInfo はtokeninfoエンドポイントにIDトークンを問い合わせる。
func (v *GoogleVerifier) fetchTokenInfo(ctx context.Context, credential string) (*googleTokenInfo, error) {
	endpoint := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token info request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse token info response: %w", err)
	}

	return &info, nil
}

// compile-time interface check
var _ ExternalVerifier = (*GoogleVerifier)(nil)
