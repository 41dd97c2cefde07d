package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_CanModify(t *testing.T) {
	buyer := &Buyer{ID: "b1", OwnerID: "u1"}

	assert.True(t, Principal{ID: "u1", Role: RoleUser}.CanModify(buyer))
	assert.False(t, Principal{ID: "u2", Role: RoleUser}.CanModify(buyer))
	assert.True(t, Principal{ID: "u2", Role: RoleAdmin}.CanModify(buyer))
	assert.False(t, Principal{ID: "u1", Role: RoleAdmin}.CanModify(nil))
}

func TestPrincipalFromUser_FallsBackToEmail(t *testing.T) {
	p := PrincipalFromUser(&User{ID: "u1", Email: "agent@example.com", Role: RoleUser})
	assert.Equal(t, "agent@example.com", p.Name)
	assert.False(t, p.IsAdmin())
	assert.False(t, p.IsZero())
	assert.True(t, Principal{}.IsZero())
}

func TestError_DetailsAndCodes(t *testing.T) {
	err := ErrStaleBuyer.WithDetails("x")
	assert.True(t, IsDomainError(err, ErrCodeConflict))
	assert.Equal(t, "x", ErrorDetails(err))
	assert.Nil(t, ErrStaleBuyer.Details)

	wrapped := WrapError(ErrCodeUnavailable, "database unavailable", errors.New("dial tcp"))
	assert.Equal(t, "database unavailable: dial tcp", wrapped.Error())
	assert.False(t, IsDomainError(errors.New("plain"), ErrCodeInternal))

	invalid := NewValidationError([]FieldError{{Path: "phone", Message: "Phone must be 10-15 digits"}})
	assert.Len(t, FieldErrors(invalid), 1)
	assert.Nil(t, FieldErrors(ErrBuyerNotFound))
}
