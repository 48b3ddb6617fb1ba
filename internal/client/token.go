package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Token is the subset of the OAuth token response the client relies on.
type Token struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// Header returns the value of the Authorization header.
func (t Token) Header() string {
	return t.TokenType + " " + t.AccessToken
}

// Expiration reads the exp claim when the access token is a JWT. Opaque tokens
// return false. The signature is not checked: the service does that.
func (t Token) Expiration() (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenProvider exchanges client credentials for a bearer token.
type TokenProvider struct {
	endpoint   string
	httpClient HttpRequestDoer
}

func NewTokenProvider(endpoint string, httpClient HttpRequestDoer) *TokenProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &TokenProvider{endpoint: endpoint, httpClient: httpClient}
}

// GetToken returns the Authorization header value for the given credentials.
func (p *TokenProvider) GetToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	token, err := p.RequestToken(ctx, clientID, clientSecret)
	if err != nil {
		return "", err
	}
	return token.Header(), nil
}

// RequestToken performs a single client_credentials grant. There is no retry.
func (p *TokenProvider) RequestToken(ctx context.Context, clientID, clientSecret string) (*Token, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var token Token
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.TokenType == "" {
		return nil, fmt.Errorf("token response has no token_type")
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	if exp, ok := token.Expiration(); ok {
		zap.S().Named("token").Debugw("token acquired", "expires_at", exp.Format(time.RFC3339))
	} else if token.ExpiresIn > 0 {
		zap.S().Named("token").Debugw("token acquired", "expires_in", time.Duration(token.ExpiresIn)*time.Second)
	}

	return &token, nil
}
