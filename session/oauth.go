package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// CodePrompt presents the consent URL to the user and returns the
// authorization code they were granted. Returning
// ErrAuthorizationCanceled aborts the flow without a state change.
type CodePrompt func(ctx context.Context, authURL string) (string, error)

// OAuthAuthorizer runs a standard three-legged OAuth2 code flow to obtain
// the delegated access token.
type OAuthAuthorizer struct {
	cfg    *oauth2.Config
	prompt CodePrompt
}

// NewOAuthAuthorizer builds an authorizer over the given OAuth2 config and
// consent prompt.
func NewOAuthAuthorizer(cfg *oauth2.Config, prompt CodePrompt) *OAuthAuthorizer {
	return &OAuthAuthorizer{cfg: cfg, prompt: prompt}
}

func (a *OAuthAuthorizer) Authorize(ctx context.Context) (Credential, error) {
	authURL := a.cfg.AuthCodeURL("", oauth2.AccessTypeOnline)
	code, err := a.prompt(ctx, authURL)
	if err != nil {
		return Credential{}, err
	}
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return Credential{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return Credential{
		Token:     tok.AccessToken,
		ExpiresAt: tok.Expiry.UnixMilli(),
	}, nil
}

// HTTPRevoker posts the token to an OAuth2 revocation endpoint.
type HTTPRevoker struct {
	client   *http.Client
	endpoint string
}

// NewHTTPRevoker builds a revoker for the given revocation endpoint.
func NewHTTPRevoker(client *http.Client, endpoint string) *HTTPRevoker {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRevoker{client: client, endpoint: endpoint}
}

func (r *HTTPRevoker) Revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("revocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
