package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository"
)

// ErrDemoLoginDisabled is returned when the demo login is switched off.
var ErrDemoLoginDisabled = domain.NewError(domain.ErrCodeForbidden, "demo login is disabled")

// Options configure token signing and role assignment.
type Options struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	DemoLogin  bool
	// IsAdmin decides the role of a freshly logged in user.
	IsAdmin func(email string) bool
}

// Login is the result of a successful sign in.
type Login struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, opts Options, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.IsAdmin == nil {
		opts.IsAdmin = func(string) bool { return false }
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// UserID derives a stable user id from an email address, so repeated demo
// logins land on the same account.
func UserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

// DemoLogin signs in any well-formed email address, creating the user on first
// use, and issues a session-bound token.
func (uc *UseCase) DemoLogin(ctx context.Context, email, name string) (*Login, error) {
	if !uc.opts.DemoLogin {
		return nil, ErrDemoLoginDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.NewValidationError([]domain.FieldError{{Path: "email", Message: "Invalid email"}})
	}

	now := uc.now().UTC()
	role := domain.RoleUser
	if uc.opts.IsAdmin(email) {
		role = domain.RoleAdmin
	}
	user := &domain.User{
		ID:        UserID(email),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	stored, err := uc.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    stored.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.opts.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.sign(session, stored)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}

	logger.FromContext(ctx, uc.logger).Info("user logged in",
		zap.String("user_id", stored.ID),
		zap.String("role", stored.Role))
	return &Login{Token: token, ExpiresAt: session.ExpiresAt, User: *stored}, nil
}

// Resolve turns a bearer token into the principal it was issued to. Any
// failure is reported as ErrUnauthorized unless the stores are unreachable.
func (uc *UseCase) Resolve(ctx context.Context, token string) (domain.Principal, string, error) {
	parsed, err := uc.parse(token)
	if err != nil {
		return domain.Principal{}, "", domain.ErrUnauthorized
	}

	session, err := uc.sessions.Get(ctx, parsed.SessionID)
	if err != nil {
		return domain.Principal{}, "", unauthorized(err)
	}
	if session.UserID != parsed.Subject {
		return domain.Principal{}, "", domain.ErrUnauthorized
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return domain.Principal{}, "", domain.ErrUnauthorized
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return domain.Principal{}, "", unauthorized(err)
	}
	return domain.PrincipalFromUser(user), session.ID, nil
}

// Logout revokes the session so its token stops resolving.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrUnauthorized
	}
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) sign(session *domain.Session, user *domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: session.ID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    uc.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	return token.SignedString([]byte(uc.opts.Secret))
}

func (uc *UseCase) parse(token string) (*claims, error) {
	out := &claims{}
	parsed, err := jwt.ParseWithClaims(token, out, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(uc.opts.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if uc.opts.Issuer != "" && !out.VerifyIssuer(uc.opts.Issuer, true) {
		return nil, errors.New("unexpected issuer")
	}
	if out.SessionID == "" || out.Subject == "" {
		return nil, errors.New("incomplete claims")
	}
	return out, nil
}

func unauthorized(err error) error {
	if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		return err
	}
	return domain.ErrUnauthorized
}
