package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewOAuthService_Disabled(t *testing.T) {
	assert.Nil(t, NewOAuthService(OAuthConfig{}, zerolog.Nop()))
}

func TestOAuthService_HandleCallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"graph-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer graph-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"abc","mail":"","userPrincipalName":"stu@micamail.in","displayName":"Stu Dent"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewOAuthService(OAuthConfig{ClientID: "client", ClientSecret: "secret"}, zerolog.Nop())
	require.NotNil(t, svc)
	svc.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/me"

	info, err := svc.HandleOAuthCallback(context.Background(), OAuthProviderMicrosoft, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", info.ProviderID)
	assert.Equal(t, "stu@micamail.in", info.Email)
	assert.Equal(t, "Stu Dent", info.Name)

	_, err = svc.HandleOAuthCallback(context.Background(), "google", "code-1")
	assert.Error(t, err)
}
