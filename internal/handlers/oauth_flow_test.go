package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newOAuthTestHandler() *AuthHandler {
	providers := map[string]OAuthProvider{
		"google": {
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://accounts.example.test/auth",
					TokenURL: "https://accounts.example.test/token",
				},
				Scopes: []string{"email"},
			},
			UserInfoURL: "https://accounts.example.test/userinfo",
		},
		"github": {Name: "github", Config: &oauth2.Config{}},
	}
	return NewAuthHandler(nil, providers, "https://api.tinysteps.test/", "https://app.tinysteps.test", nil)
}

func oauthRequest(method, target, provider string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("provider", provider)
	return req
}

func TestStartOAuth(t *testing.T) {
	h := newOAuthTestHandler()

	rec := httptest.NewRecorder()
	h.StartOAuth(rec, oauthRequest(http.MethodGet, "/auth/google/start", "google"))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.test", location.Host)
	assert.Equal(t, "https://api.tinysteps.test/auth/google/callback", location.Query().Get("redirect_uri"))

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, location.Query().Get("state"), cookies[OAuthStateCookieName])
	assert.Equal(t, "google", cookies[OAuthProviderCookieName])

	for _, provider := range []string{"github", "myspace"} {
		rec = httptest.NewRecorder()
		h.StartOAuth(rec, oauthRequest(http.MethodGet, "/auth/"+provider+"/start", provider))
		assert.Equal(t, http.StatusNotFound, rec.Code, provider)
	}
}

func TestOAuthCallbackRejectsBadRequests(t *testing.T) {
	h := newOAuthTestHandler()

	tests := []struct {
		name       string
		query      string
		cookies    map[string]string
		wantStatus int
	}{
		{"missing code", "state=abc", map[string]string{OAuthStateCookieName: "abc"}, http.StatusBadRequest},
		{"missing state cookie", "state=abc&code=xyz", nil, http.StatusBadRequest},
		{"state mismatch", "state=abc&code=xyz", map[string]string{OAuthStateCookieName: "other"}, http.StatusBadRequest},
		{"provider mismatch", "state=abc&code=xyz", map[string]string{OAuthStateCookieName: "abc", OAuthProviderCookieName: "github"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := oauthRequest(http.MethodGet, "/auth/google/callback?"+tt.query, "google")
			for name, value := range tt.cookies {
				req.AddCookie(&http.Cookie{Name: name, Value: value})
			}
			rec := httptest.NewRecorder()
			h.OAuthCallback(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOAuthCallbackForwardsProviderError(t *testing.T) {
	h := newOAuthTestHandler()

	rec := httptest.NewRecorder()
	h.OAuthCallback(rec, oauthRequest(http.MethodGet, "/auth/google/callback?error=access_denied", "google"))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://app.tinysteps.test/oauth/callback#"), location)
	assert.Contains(t, location, "error=access_denied")
}
