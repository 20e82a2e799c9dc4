package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"expense-tracker/internal/config"
	"expense-tracker/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	goption "google.golang.org/api/option"
)

const identityRequestTimeout = 15 * time.Second

var (
	ErrMissingAuthCode    = errors.New("authorization code is required")
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")
	ErrProfileUnavailable = errors.New("identity profile unavailable")
)

// GoogleIdentityProvider signs users in with Google's OAuth 2.0 authorization-code flow
type GoogleIdentityProvider struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
	apiOptions  []goption.ClientOption
}

// NewGoogleIdentityProvider creates a provider from the Google OAuth client settings
func NewGoogleIdentityProvider(cfg *config.OAuthConfig) IdentityProviderInterface {
	return newGoogleIdentityProvider(cfg, google.Endpoint)
}

func newGoogleIdentityProvider(cfg *config.OAuthConfig, endpoint oauth2.Endpoint, apiOptions ...goption.ClientOption) *GoogleIdentityProvider {
	return &GoogleIdentityProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{goauth2.UserinfoProfileScope, goauth2.UserinfoEmailScope},
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: identityRequestTimeout},
		apiOptions: apiOptions,
	}
}

// AuthCodeURL returns the consent page URL carrying state
func (p *GoogleIdentityProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the user's Google profile
func (p *GoogleIdentityProvider) Exchange(ctx context.Context, code string) (*models.IdentityProfile, error) {
	if code == "" {
		return nil, ErrMissingAuthCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}

	opts := append([]goption.ClientOption{
		goption.WithHTTPClient(p.oauthConfig.Client(ctx, token)),
	}, p.apiOptions...)

	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}

	if info.Id == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: profile is missing id or email", ErrProfileUnavailable)
	}

	return &models.IdentityProfile{
		Subject: info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
