package profile

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository"
)

const maxNameLength = 80

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, principal.ID)
}

// UpdateProfile changes the display name shown next to owned buyers and
// history entries. Email and role are fixed at login.
func (uc *UseCase) UpdateProfile(ctx context.Context, principal domain.Principal, name string) (*domain.User, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > maxNameLength {
		return nil, domain.NewValidationError([]domain.FieldError{{
			Path:    "name",
			Message: "Name must be between 2 and 80 characters",
		}})
	}

	user, err := uc.users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.UpdatedAt = time.Now().UTC()
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}
