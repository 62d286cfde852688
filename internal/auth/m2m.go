package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-ticket-stats/internal/logger"
	"ms-ticket-stats/internal/models"
)

// TokenSource issues client credentials tokens for calls to other services.
// Cache is optional; without it every call hits the identity provider.
type TokenSource struct {
	Config models.KeycloakConfig
	Client *http.Client
	Cache  *RedisTokenCache
	Logger *logger.Logger
}

// Token returns a cached M2M token or requests a new one from Keycloak.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.Cache != nil {
		cached, err := s.Cache.GetToken(ctx)
		if err != nil {
			s.Logger.Warn("AUTH", fmt.Sprintf("Token cache read failed, requesting a new token: %v", err))
		} else if cached != nil {
			s.Logger.Debug("AUTH", "Using cached M2M token")
			return cached.Token, nil
		}
	}

	tokenResp, err := s.requestToken(ctx)
	if err != nil {
		return "", err
	}

	if s.Cache != nil && tokenResp.ExpiresIn > 0 {
		if err := s.Cache.SetToken(ctx, tokenResp.AccessToken, tokenResp.ExpiresIn); err != nil {
			s.Logger.Warn("AUTH", fmt.Sprintf("Failed to cache M2M token: %v", err))
		}
	}
	return tokenResp.AccessToken, nil
}

func (s *TokenSource) requestToken(ctx context.Context) (*models.TokenResponse, error) {
	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token",
		strings.TrimRight(s.Config.KeycloakURL, "/"), s.Config.KeycloakRealm)
	s.Logger.Debug("AUTH", fmt.Sprintf("Requesting M2M token from %s", tokenURL))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", s.Config.ClientID)
	data.Set("client_secret", s.Config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.Logger.Error("AUTH", fmt.Sprintf("Keycloak token response %s: %s", resp.Status, string(body)))
		return nil, fmt.Errorf("failed to get token, status: %s", resp.Status)
	}

	var tokenResp models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &tokenResp, nil
}
