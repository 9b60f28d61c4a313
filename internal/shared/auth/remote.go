package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RemoteVerifier asks the identity provider's user endpoint to resolve a
// token. A 401 or 403 from the provider means the token is not valid.
type RemoteVerifier struct {
	UserURL string
	APIKey  string
	// HTTPClient is the transport underneath the oauth2 client. Optional.
	HTTPClient *http.Client
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewRemoteVerifier returns a verifier for the given user endpoint.
func NewRemoteVerifier(userURL, apiKey string) (*RemoteVerifier, error) {
	userURL = strings.TrimSpace(userURL)
	if userURL == "" {
		return nil, fmt.Errorf("AUTH_USER_URL is required for remote auth")
	}
	return &RemoteVerifier{
		UserURL:    userURL,
		APIKey:     strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Verify resolves the token via the provider.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	clientCtx := ctx
	if v.HTTPClient != nil {
		clientCtx = context.WithValue(ctx, oauth2.HTTPClient, v.HTTPClient)
	}
	client := oauth2.NewClient(clientCtx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.UserURL, nil)
	if err != nil {
		return Identity{}, err
	}
	if v.APIKey != "" {
		req.Header.Set("apikey", v.APIKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return Identity{}, fmt.Errorf("identity provider http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, err
	}
	var user remoteUser
	if err := json.Unmarshal(body, &user); err != nil {
		return Identity{}, fmt.Errorf("identity provider response parse: %w", err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return Identity{}, fmt.Errorf("%w: no user ID", ErrInvalidToken)
	}
	role := user.Role
	if role == "" {
		role = "authenticated"
	}
	return Identity{UserID: user.ID, Email: user.Email, Role: role}, nil
}

var _ Verifier = (*RemoteVerifier)(nil)
