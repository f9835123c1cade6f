package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"

	"account-service/internal/domain"
)

var (
	ErrNotConfigured = errors.New("google oauth not configured")
	ErrMissingCode   = errors.New("authorization code missing")
)

// GoogleProvider envuelve el provider de goth sin usar su registro global.
type GoogleProvider struct {
	provider goth.Provider
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return &GoogleProvider{}
	}
	return &GoogleProvider{
		provider: google.New(clientID, clientSecret, callbackURL, "email", "profile"),
	}
}

func (p *GoogleProvider) Configured() bool {
	return p != nil && p.provider != nil
}

// BeginAuth devuelve la URL de consentimiento y la sesion de goth serializada,
// que el llamador debe guardar hasta el callback.
func (p *GoogleProvider) BeginAuth(state string) (string, string, error) {
	if !p.Configured() {
		return "", "", ErrNotConfigured
	}
	sess, err := p.provider.BeginAuth(state)
	if err != nil {
		return "", "", fmt.Errorf("begin auth: %w", err)
	}
	authURL, err := sess.GetAuthURL()
	if err != nil {
		return "", "", fmt.Errorf("auth url: %w", err)
	}
	return authURL, sess.Marshal(), nil
}

// CompleteAuth canjea el code del callback y devuelve el perfil normalizado.
func (p *GoogleProvider) CompleteAuth(ctx context.Context, rawSession string, params url.Values) (domain.ExternalProfile, error) {
	if !p.Configured() {
		return domain.ExternalProfile{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return domain.ExternalProfile{}, err
	}
	if strings.TrimSpace(params.Get("code")) == "" {
		return domain.ExternalProfile{}, ErrMissingCode
	}

	sess, err := p.provider.UnmarshalSession(rawSession)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if _, err := sess.Authorize(p.provider, params); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("authorize: %w", err)
	}
	user, err := p.provider.FetchUser(sess)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("fetch user: %w", err)
	}
	return profileFromGothUser(user), nil
}

// profileFromGothUser tolera campos ausentes; solo UserID es obligatorio aguas abajo.
func profileFromGothUser(u goth.User) domain.ExternalProfile {
	profile := domain.ExternalProfile{
		ExternalID:  strings.TrimSpace(u.UserID),
		DisplayName: strings.TrimSpace(u.Name),
		Name: domain.ProfileName{
			GivenName:  strings.TrimSpace(u.FirstName),
			FamilyName: strings.TrimSpace(u.LastName),
		},
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		profile.Emails = []domain.ProfileValue{{Value: email}}
	}
	if photo := strings.TrimSpace(u.AvatarURL); photo != "" {
		profile.Photos = []domain.ProfileValue{{Value: photo}}
	}
	profile.EmailVerified = rawBool(u.RawData, "email_verified") || rawBool(u.RawData, "verified_email")
	return profile
}

func rawBool(raw map[string]interface{}, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}
