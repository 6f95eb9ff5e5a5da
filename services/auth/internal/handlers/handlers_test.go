package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/mailer"
	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/domain"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/otp"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/repository"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/service"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) RequestOTP(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *mockAuth) VerifyOTP(ctx context.Context, email, code string) error {
	return m.Called(email, code).Error(0)
}

func (m *mockAuth) RequestRegistrationOTP(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *mockAuth) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*domain.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*domain.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	args := m.Called(refreshToken)
	resp, _ := args.Get(0).(*domain.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuth) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *mockAuth) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	return m.Called(req).Error(0)
}

func newRouter(svc service.AuthService, limiter *mw.RateLimiter) http.Handler {
	r := chi.NewRouter()
	New(svc, limiter).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequestOTPAccepted(t *testing.T) {
	svc := &mockAuth{}
	svc.On("RequestOTP", "a@b.com").Return(nil)
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/request-otp", `{"email":" A@b.com "}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotContains(t, rec.Body.String(), "code\":")
	svc.AssertExpectations(t)
}

func TestRequestOTPRejectsBadEmail(t *testing.T) {
	svc := &mockAuth{}
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/request-otp", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidInput, decodeError(t, rec).Code)

	rec = do(t, h, "/auth/request-otp", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything)
}

func TestRequestOTPRateLimited(t *testing.T) {
	svc := &mockAuth{}
	svc.On("RequestOTP", mock.Anything).Return(nil)
	h := newRouter(svc, mw.NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusAccepted, do(t, h, "/auth/request-otp", `{"email":"a@b.com"}`).Code)
	assert.Equal(t, http.StatusAccepted, do(t, h, "/auth/request-otp", `{"email":"a@b.com"}`).Code)

	rec := do(t, h, "/auth/request-otp", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, response.CodeRateLimit, decodeError(t, rec).Code)
	svc.AssertNumberOfCalls(t, "RequestOTP", 2)
}

func TestRequestOTPDeliveryFailure(t *testing.T) {
	svc := &mockAuth{}
	svc.On("RequestOTP", "a@b.com").Return(otp.ErrDelivery.Wrap(assert.AnError))
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/request-otp", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "OTP_DELIVERY_FAILED", decodeError(t, rec).Code)
}

func TestVerifyOTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"not found", otp.ErrNotFound, http.StatusNotFound, "OTP_NOT_FOUND"},
		{"expired", otp.ErrExpired, http.StatusGone, "OTP_EXPIRED"},
		{"exhausted", otp.ErrAttemptsExhausted, http.StatusConflict, "OTP_ATTEMPTS_EXHAUSTED"},
		{"wrong", otp.ErrInvalidCode, http.StatusBadRequest, "OTP_INVALID_CODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuth{}
			svc.On("VerifyOTP", "a@b.com", "123456").Return(tt.err)
			h := newRouter(svc, mw.NewRateLimiter(100, 100))

			rec := do(t, h, "/auth/verify-otp", `{"email":"a@b.com","code":"123456"}`)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
			}
		})
	}
}

func TestVerifyOTPRejectsMalformedCode(t *testing.T) {
	svc := &mockAuth{}
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	for _, code := range []string{"12345", "abcdef", "1234567"} {
		rec := do(t, h, "/auth/verify-otp", `{"email":"a@b.com","code":"`+code+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, code)
	}
	svc.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything)
}

func TestRegisterCreated(t *testing.T) {
	svc := &mockAuth{}
	svc.On("Register", mock.MatchedBy(func(req *domain.RegisterRequest) bool {
		return req.Email == "a@b.com" && req.Code == "123456"
	})).Return(&domain.TokenResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    900,
		User:         &domain.UserInfo{ID: 1, Email: "a@b.com", Name: "Ada", Role: "user"},
	}, nil)
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/register", `{"email":"a@b.com","code":"123456","name":"Ada","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"accessToken":"access","refreshToken":"refresh","expiresIn":900,
		"user":{"id":1,"email":"a@b.com","name":"Ada","role":"user"}
	}`, rec.Body.String())
}

func TestRegisterShortPassword(t *testing.T) {
	svc := &mockAuth{}
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/register", `{"email":"a@b.com","code":"123456","name":"Ada","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything)
}

func TestLoginUnauthorized(t *testing.T) {
	svc := &mockAuth{}
	svc.On("Login", mock.Anything).Return(nil, service.ErrInvalidCredentials)
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/login", `{"email":"a@b.com","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordAccepted(t *testing.T) {
	svc := &mockAuth{}
	svc.On("RequestPasswordReset", "a@b.com").Return(nil)
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	rec := do(t, h, "/auth/password/forgot", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	svc.AssertExpectations(t)
}

// unusedUsers fails the test if the flow under test reaches the user table.
type unusedUsers struct {
	repository.UserRepository
}

type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func TestOTPAttemptsExhaustedOverHTTP(t *testing.T) {
	sender := &captureSender{}
	verifier := otp.NewVerifier(otp.NewMemoryStore(), sender,
		otp.WithGenerator(func() (string, error) { return "424242", nil }))
	svc := service.NewAuthService(unusedUsers{}, verifier, config.AuthConfig{JWTSecret: "s"})
	h := newRouter(svc, mw.NewRateLimiter(100, 100))

	require.Equal(t, http.StatusAccepted, do(t, h, "/auth/request-otp", `{"email":"a@b.com"}`).Code)
	require.Len(t, sender.sent, 1)

	for remaining := 2; remaining >= 0; remaining-- {
		rec := do(t, h, "/auth/verify-otp", `{"email":"a@b.com","code":"111111"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "OTP_INVALID_CODE", body.Code)
		assert.EqualValues(t, remaining, body.Details["remaining_attempts"])
	}

	rec := do(t, h, "/auth/verify-otp", `{"email":"a@b.com","code":"424242"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OTP_ATTEMPTS_EXHAUSTED", decodeError(t, rec).Code)
}
