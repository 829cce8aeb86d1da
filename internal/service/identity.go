package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/clipdigest/backend/internal/contextkeys"
	"github.com/clipdigest/backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is a verified registered user, keyed by our own user id.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// ProviderIdentity is what the external OAuth provider asserts. The subject
// stays a string: Google subs run past 20 decimal digits and are opaque ids,
// not numbers.
type ProviderIdentity struct {
	Sub   string
	Email string
}

// IdentityProvider exchanges an OAuth bearer token for a provider identity.
// The provider itself (Google) is an external collaborator.
type IdentityProvider interface {
	Verify(ctx context.Context, bearer string) (ProviderIdentity, error)
}

// UserStore maps provider subjects to internal user ids.
// *repository.UserRepository implements it.
type UserStore interface {
	Ensure(ctx context.Context, providerSub, email string) (int64, error)
}

// GoogleProvider verifies Google OAuth access tokens against the tokeninfo
// endpoint.
type GoogleProvider struct {
	endpoint string
	client   *http.Client
}

func NewGoogleProvider(endpoint string) *GoogleProvider {
	if endpoint == "" {
		endpoint = "https://oauth2.googleapis.com/tokeninfo"
	}
	return &GoogleProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GoogleProvider) Verify(ctx context.Context, bearer string) (ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.endpoint+"?access_token="+url.QueryEscape(bearer), nil)
	if err != nil {
		return ProviderIdentity{}, domain.ErrUpstream("identity provider unavailable", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ProviderIdentity{}, domain.ErrUpstream("identity provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProviderIdentity{}, domain.ErrUnauthorized("invalid oauth token")
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ProviderIdentity{}, domain.ErrUpstream("identity provider returned garbage", err)
	}
	if info.Sub == "" {
		return ProviderIdentity{}, domain.ErrUnauthorized("oauth token has no usable subject")
	}
	return ProviderIdentity{Sub: info.Sub, Email: info.Email}, nil
}

// IdentityService resolves inbound requests to a stable subject and issues
// session tokens for users who completed the OAuth exchange.
type IdentityService struct {
	jwtSecret string
	provider  IdentityProvider
	users     UserStore
}

func NewIdentityService(jwtSecret string, provider IdentityProvider, users UserStore) *IdentityService {
	return &IdentityService{jwtSecret: jwtSecret, provider: provider, users: users}
}

// Exchange verifies an OAuth bearer with the external provider, maps the
// provider subject to our user row and returns a signed session token.
func (s *IdentityService) Exchange(ctx context.Context, bearer string) (string, Identity, error) {
	pid, err := s.provider.Verify(ctx, bearer)
	if err != nil {
		return "", Identity{}, err
	}
	userID, err := s.users.Ensure(ctx, pid.Sub, pid.Email)
	if err != nil {
		return "", Identity{}, domain.ErrInternal("failed to map oauth subject", err)
	}
	id := Identity{UserID: userID, Email: pid.Email}

	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(id.UserID, 10),
		"email": id.Email,
		"exp":   time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", Identity{}, domain.ErrInternal("failed to sign session token", err)
	}
	return signed, id, nil
}

// VerifyToken validates a session JWT and returns the identity inside it.
func (s *IdentityService) VerifyToken(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return Identity{}, domain.ErrUnauthorized("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, domain.ErrUnauthorized("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID == 0 {
		return Identity{}, domain.ErrUnauthorized("invalid token subject")
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Email: email}, nil
}

// ResolveSubject maps a request to its subject. An authenticated identity in
// the context wins; otherwise the body-supplied user id, then the guest
// token. A guest's accumulated usage is never merged into a user row on
// login — the guest row is abandoned.
func (s *IdentityService) ResolveSubject(ctx context.Context, bodyUserID int64, bodyGuestID string) (domain.Subject, error) {
	if id, ok := ctx.Value(contextkeys.UserID).(int64); ok && id != 0 {
		return domain.Subject{UserID: id}, nil
	}
	if bodyUserID != 0 {
		return domain.Subject{UserID: bodyUserID}, nil
	}
	if bodyGuestID != "" {
		return domain.Subject{GuestID: bodyGuestID}, nil
	}
	return domain.Subject{}, domain.ErrBadRequest("missing userId or guestId")
}
