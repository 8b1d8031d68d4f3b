package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "cvscreen-backend/internal/shared/auth"
	"cvscreen-backend/internal/shared/server/respond"
	"cvscreen-backend/internal/shared/telemetry"
)

// GoogleAuth handles the Google OAuth login flow for recruiters.
type GoogleAuth struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	stateTTL    time.Duration

	mu     sync.Mutex
	states map[string]time.Time
}

// NewGoogleAuth builds the Google login handler.
func NewGoogleAuth(clientID, clientSecret, redirectURL, uiRedirect string) *GoogleAuth {
	return &GoogleAuth{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect: uiRedirect,
		stateTTL:   5 * time.Minute,
		states:     make(map[string]time.Time),
	}
}

// Register attaches the login routes.
func (g *GoogleAuth) Register(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", g.start)
	rg.GET("/auth/google/callback", g.callback)
}

func (g *GoogleAuth) start(c *gin.Context) {
	if g.oauthConfig.ClientID == "" || g.oauthConfig.ClientSecret == "" || g.oauthConfig.RedirectURL == "" {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	g.putState(state)
	c.Redirect(http.StatusFound, g.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

func (g *GoogleAuth) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !g.consumeState(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil || profile.Sub == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	session, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     "google:" + profile.Sub,
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	telemetry.Info("auth.login", map[string]any{"email": profile.Email})

	if g.uiRedirect == "" {
		respond.OK(c, gin.H{"token": session})
		return
	}
	redirectURL, err := appendToken(g.uiRedirect, session)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

type googleProfile struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (g *GoogleAuth) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	client := g.oauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, err
	}
	// Some responses use "id" instead of "sub".
	if profile.Sub == "" {
		profile.Sub = profile.ID
	}
	return profile, nil
}

func (g *GoogleAuth) putState(state string) {
	g.mu.Lock()
	g.states[state] = time.Now().Add(g.stateTTL)
	g.mu.Unlock()
}

func (g *GoogleAuth) consumeState(state string) bool {
	g.mu.Lock()
	exp, ok := g.states[state]
	if ok {
		delete(g.states, state)
	}
	g.mu.Unlock()
	return ok && time.Now().Before(exp)
}

func appendToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
