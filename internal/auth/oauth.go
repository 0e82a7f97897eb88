package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

// OAuthUserInfo contains user data from the OAuth provider.
type OAuthUserInfo struct {
	ProviderID string
	Email      string
	Name       string
}

// OAuthConfig holds Entra ID application settings.
type OAuthConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OAuthService handles the Microsoft Entra ID sign-in flow.
type OAuthService struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewOAuthService returns nil when the client id is not configured.
func NewOAuthService(cfg OAuthConfig, logger zerolog.Logger) *OAuthService {
	if cfg.ClientID == "" {
		return nil
	}
	tenant := cfg.TenantID
	if tenant == "" {
		tenant = "common"
	}
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		userInfoURL: graphMeURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger.With().Str("component", "oauth").Logger(),
	}
}

// StartOAuthFlow generates the authorization URL.
func (s *OAuthService) StartOAuthFlow(provider, state string) (string, error) {
	if provider != OAuthProviderMicrosoft {
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// HandleOAuthCallback exchanges the code and reads the signed-in user's profile.
func (s *OAuthService) HandleOAuthCallback(ctx context.Context, provider, code string) (*OAuthUserInfo, error) {
	if provider != OAuthProviderMicrosoft {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Msg("OAuth token exchange failed")
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info API returned status %d", resp.StatusCode)
	}

	var me struct {
		ID                string `json:"id"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		DisplayName       string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	return &OAuthUserInfo{ProviderID: me.ID, Email: email, Name: me.DisplayName}, nil
}
