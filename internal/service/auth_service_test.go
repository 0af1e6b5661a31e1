package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"teashop/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(userRepo *fakeUserRepo, mailer *fakeMailer) AuthService {
	return NewAuthService(userRepo, mailer, []byte("test-secret"), time.Hour,
		"http://localhost:8080", zerolog.Nop())
}

func TestSignupSendsVerificationMail(t *testing.T) {
	userRepo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newAuthService(userRepo, mailer)

	msg, err := svc.Signup(context.Background(), SignupRequest{
		Email: "aoi@example.com", Password: "s3cret-pass", Nickname: "Aoi",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	user, err := userRepo.GetByEmail(context.Background(), "aoi@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, uuid.Nil, user.VerificationToken)
	require.NotNil(t, user.VerificationSentAt)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "aoi@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "/api/auth/verify-email/"+user.VerificationToken.String())
}

func TestSignupMailFailureRollsBackAccount(t *testing.T) {
	userRepo := newFakeUserRepo()
	mailer := &fakeMailer{sendErr: errors.New("smtp refused")}
	svc := newAuthService(userRepo, mailer)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email: "aoi@example.com", Password: "s3cret-pass",
	})
	require.Error(t, err)
	assert.Len(t, userRepo.deleted, 1, "tentative account removed so a retry can start fresh")

	_, err = userRepo.GetByEmail(context.Background(), "aoi@example.com")
	assert.Error(t, err)
}

func TestSignupExistingVerifiedIsIndistinguishable(t *testing.T) {
	existing := &model.User{Email: "aoi@example.com", IsEmailVerified: true, IsActive: true}
	userRepo := newFakeUserRepo(existing)
	mailer := &fakeMailer{}
	svc := newAuthService(userRepo, mailer)

	msgExisting, err := svc.Signup(context.Background(), SignupRequest{
		Email: "aoi@example.com", Password: "whatever-pass",
	})
	require.NoError(t, err)

	msgFresh, err := svc.Signup(context.Background(), SignupRequest{
		Email: "new@example.com", Password: "whatever-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, msgFresh, msgExisting, "responses must not leak which addresses exist")
	assert.Len(t, mailer.sent, 1, "no mail to the already-verified address")
}

func TestSignupUnverifiedRetryRotatesToken(t *testing.T) {
	token := uuid.New()
	existing := &model.User{Email: "aoi@example.com", VerificationToken: token}
	userRepo := newFakeUserRepo(existing)
	mailer := &fakeMailer{}
	svc := newAuthService(userRepo, mailer)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email: "aoi@example.com", Password: "new-password1", Nickname: "Aoi",
	})
	require.NoError(t, err)

	user, err := userRepo.GetByEmail(context.Background(), "aoi@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, token, user.VerificationToken, "old link invalidated")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password1")))
	assert.Len(t, mailer.sent, 1)
}

func TestVerifyEmailActivatesAccount(t *testing.T) {
	token := uuid.New()
	sent := time.Now().Add(-time.Hour)
	user := &model.User{Email: "aoi@example.com", VerificationToken: token, VerificationSentAt: &sent}
	userRepo := newFakeUserRepo(user)
	svc := newAuthService(userRepo, &fakeMailer{})

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	assert.True(t, user.IsEmailVerified)
	assert.True(t, user.IsActive)

	// Verifying again is a no-op, not an error.
	assert.NoError(t, svc.VerifyEmail(context.Background(), token))
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	token := uuid.New()
	sent := time.Now().Add(-25 * time.Hour)
	user := &model.User{Email: "aoi@example.com", VerificationToken: token, VerificationSentAt: &sent}
	userRepo := newFakeUserRepo(user)
	svc := newAuthService(userRepo, &fakeMailer{})

	err := svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
	assert.False(t, user.IsEmailVerified)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), &fakeMailer{})
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), uuid.New()), model.ErrNotFound)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Email: "aoi@example.com", PasswordHash: string(hash), Role: "customer",
		IsEmailVerified: true, IsActive: true, Nickname: "Aoi",
	}
	userRepo := newFakeUserRepo(user)
	svc := newAuthService(userRepo, &fakeMailer{})

	res, err := svc.Login(context.Background(), LoginRequest{Email: "aoi@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Aoi", res.DisplayName)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "aoi@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLoginUnverifiedAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{Email: "aoi@example.com", PasswordHash: string(hash)}
	svc := newAuthService(newFakeUserRepo(user), &fakeMailer{})

	_, err = svc.Login(context.Background(), LoginRequest{Email: "aoi@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, model.ErrEmailNotVerified)
}

func TestResendVerification(t *testing.T) {
	token := uuid.New()
	user := &model.User{Email: "aoi@example.com", VerificationToken: token}
	userRepo := newFakeUserRepo(user)
	mailer := &fakeMailer{}
	svc := newAuthService(userRepo, mailer)

	require.NoError(t, svc.ResendVerification(context.Background(), ResendVerificationRequest{Email: "aoi@example.com"}))
	assert.NotEqual(t, token, user.VerificationToken)
	assert.Len(t, mailer.sent, 1)

	// Verified accounts and unknown addresses both come back not-found.
	user.IsEmailVerified = true
	assert.ErrorIs(t, svc.ResendVerification(context.Background(), ResendVerificationRequest{Email: "aoi@example.com"}), model.ErrNotFound)
	assert.ErrorIs(t, svc.ResendVerification(context.Background(), ResendVerificationRequest{Email: "ghost@example.com"}), model.ErrNotFound)
}
