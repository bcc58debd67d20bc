package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/sumire/issuetracker/internal/clock"
	"github.com/sumire/issuetracker/internal/domain"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// AuthConfig holds OAuth configuration.
type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	JWTSecret          string
	BaseURL            string
}

// AuthService handles authentication logic.
type AuthService struct {
	clock     clock.Clock
	jwtSecret []byte
	google    *oauth2.Config
	github    *oauth2.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(clk clock.Clock, cfg AuthConfig) *AuthService {
	return &AuthService{
		clock:     clk,
		jwtSecret: []byte(cfg.JWTSecret),
		google: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleOAuth.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
			RedirectURL:  cfg.BaseURL + "/api/auth/google/callback",
		},
		github: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"user:email"},
			RedirectURL:  cfg.BaseURL + "/api/auth/github/callback",
		},
	}
}

// GoogleEnabled reports whether Google login is configured.
func (s *AuthService) GoogleEnabled() bool { return s.google.ClientID != "" }

// GitHubEnabled reports whether GitHub login is configured.
func (s *AuthService) GitHubEnabled() bool { return s.github.ClientID != "" }

// GoogleAuthURL returns the Google OAuth authorization URL.
func (s *AuthService) GoogleAuthURL(state string) string {
	return s.google.AuthCodeURL(state)
}

// GitHubAuthURL returns the GitHub OAuth authorization URL.
func (s *AuthService) GitHubAuthURL(state string) string {
	return s.github.AuthCodeURL(state)
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GoogleCallback exchanges the authorization code and returns a JWT pair.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*domain.User, *TokenPair, error) {
	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: google token exchange: %v", domain.ErrUnauthorized, err)
	}

	userInfo, err := fetchGoogleUserInfo(ctx, s.google.Client(ctx, token))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch google user info: %w", err)
	}

	user := &domain.User{
		Provider:    domain.AuthProviderGoogle,
		ProviderID:  userInfo.ID,
		Email:       userInfo.Email,
		DisplayName: userInfo.Name,
	}

	pair, err := s.GenerateTokenPair(*user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// GitHubCallback exchanges the authorization code and returns a JWT pair.
func (s *AuthService) GitHubCallback(ctx context.Context, code string) (*domain.User, *TokenPair, error) {
	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: github token exchange: %v", domain.ErrUnauthorized, err)
	}

	userInfo, err := fetchGitHubUserInfo(ctx, s.github.Client(ctx, token))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch github user info: %w", err)
	}

	user := &domain.User{
		Provider:    domain.AuthProviderGitHub,
		ProviderID:  strconv.FormatInt(userInfo.ID, 10),
		Email:       userInfo.Email,
		DisplayName: userInfo.Login,
	}

	pair, err := s.GenerateTokenPair(*user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// ValidateToken validates a JWT access token and returns the user it names.
func (s *AuthService) ValidateToken(tokenString string) (*domain.User, error) {
	return s.parseToken(tokenString, "access")
}

// RefreshAccessToken validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	user, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	return s.GenerateTokenPair(*user)
}

// GenerateTokenPair signs a fresh access and refresh token for user.
func (s *AuthService) GenerateTokenPair(user domain.User) (*TokenPair, error) {
	now := s.clock.Now()

	accessStr, err := s.sign(user, "access", now, now.Add(accessTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshStr, err := s.sign(user, "refresh", now, now.Add(refreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}

func (s *AuthService) sign(user domain.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.Subject(),
		"type":  tokenType,
		"name":  user.DisplayName,
		"email": user.Email,
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenString, wantType string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s token: %v", domain.ErrUnauthorized, wantType, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return nil, domain.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	provider, providerID, ok := strings.Cut(sub, ":")
	if !ok || providerID == "" {
		return nil, domain.ErrUnauthorized
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	return &domain.User{
		Provider:    domain.AuthProvider(provider),
		ProviderID:  providerID,
		Email:       email,
		DisplayName: name,
	}, nil
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type githubUserInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

func fetchGoogleUserInfo(ctx context.Context, client *http.Client) (*googleUserInfo, error) {
	var info googleUserInfo
	if err := getJSON(ctx, client, googleUserInfoURL, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func fetchGitHubUserInfo(ctx context.Context, client *http.Client) (*githubUserInfo, error) {
	var info githubUserInfo
	if err := getJSON(ctx, client, githubUserURL, &info); err != nil {
		return nil, err
	}

	if info.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, githubEmailsURL, &emails); err != nil {
			return nil, fmt.Errorf("fetch emails: %w", err)
		}
		info.Email = primaryEmail(emails)
	}

	return &info, nil
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

// getJSON issues an authenticated GET and decodes the JSON response into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
