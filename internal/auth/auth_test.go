package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/basketwise/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	users, err := NewUserRepository(context.Background(), s)
	require.NoError(t, err)

	svc := NewService(users, "test-secret", time.Hour, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc
}

func validInput() SignUpInput {
	return SignUpInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Username: "asha",
		Password: "s3cret!",
		Age:      27,
		Gender:   "female",
	}
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "asha", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token.Value)

	claims, err := svc.Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, "Asha Rao", claims.Name)

	me, err := svc.User(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(*SignUpInput){
		"missing name":     func(in *SignUpInput) { in.Name = "  " },
		"missing email":    func(in *SignUpInput) { in.Email = "" },
		"missing password": func(in *SignUpInput) { in.Password = "" },
		"missing age":      func(in *SignUpInput) { in.Age = 0 },
		"missing gender":   func(in *SignUpInput) { in.Gender = "" },
		"too young":        func(in *SignUpInput) { in.Age = 14 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.SignUp(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	in := validInput()
	in.Age = MinimumAge
	_, err := svc.SignUp(ctx, in)
	assert.NoError(t, err)
}

func TestSignUpDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, validInput())
	require.NoError(t, err)

	sameEmail := validInput()
	sameEmail.Username = "other"
	_, err = svc.SignUp(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrUserExists)

	sameUsername := validInput()
	sameUsername.Email = "other@example.com"
	_, err = svc.SignUp(ctx, sameUsername)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, validInput())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "asha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, validInput())
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "asha", "s3cret!")
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	svc.now = func() time.Time { return later }
	_, err = svc.Verify(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = time.Now
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
