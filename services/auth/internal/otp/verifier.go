// Package otp issues and checks short-lived one-time codes sent by email.
//
// A key holds at most one active code. Requesting again replaces it. Verify
// consumes the code on success and forgets it once it expires or runs out of
// attempts, so every code is single use.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/pkg/keylock"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/mailer"
	"github.com/diagnosis/luxsuv-rentals/pkg/metrics"
	"github.com/diagnosis/luxsuv-rentals/pkg/utils"
)

const (
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 3
)

type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// Key is the store key for email under purpose.
func Key(email string, purpose Purpose) string {
	email = utils.NormalizeEmail(email)
	if purpose == PurposePasswordReset {
		return "reset_" + email
	}
	return email
}

var (
	ErrNotFound          = apperror.NotFound("OTP_NOT_FOUND", "no verification code was requested for this email")
	ErrExpired           = apperror.Expired("OTP_EXPIRED", "the verification code has expired, request a new one")
	ErrAttemptsExhausted = apperror.Conflict("OTP_ATTEMPTS_EXHAUSTED", "too many wrong codes, request a new one")
	ErrInvalidCode       = apperror.Validation("OTP_INVALID_CODE", "the verification code is not correct")
	ErrDelivery          = apperror.Dependency("OTP_DELIVERY_FAILED", "the verification code could not be sent")
	ErrStore             = apperror.Dependency("OTP_STORE_UNAVAILABLE", "verification codes are temporarily unavailable")
)

type Verifier struct {
	store       Store
	sender      mailer.Sender
	locks       *keylock.Map
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func() (string, error)
}

type Option func(*Verifier)

func WithTTL(ttl time.Duration) Option {
	return func(v *Verifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func WithGenerator(generate func() (string, error)) Option {
	return func(v *Verifier) { v.generate = generate }
}

func NewVerifier(store Store, sender mailer.Sender, opts ...Option) *Verifier {
	v := &Verifier{
		store:       store,
		sender:      sender,
		locks:       keylock.New(),
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		generate:    GenerateCode,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// retention keeps the record one extra TTL past expiry so Verify can tell an
// expired code from one that was never requested.
func (v *Verifier) retention(rec *Record) time.Duration {
	return rec.ExpiresAt.Add(v.ttl).Sub(v.now())
}

// Request issues a fresh code for email, replacing any earlier one, and mails
// it. When the mail cannot be sent the record is removed again.
func (v *Verifier) Request(ctx context.Context, email string, purpose Purpose) error {
	key := Key(email, purpose)
	unlock := v.locks.Lock(key)
	defer unlock()

	code, err := v.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	rec := &Record{CodeHash: string(hash), ExpiresAt: v.now().Add(v.ttl)}
	if err := v.store.Set(ctx, key, rec, v.retention(rec)); err != nil {
		metrics.OTPRequests.WithLabelValues(string(purpose), "store_error").Inc()
		return ErrStore.Wrap(err)
	}

	msg := mailer.OTPEmail(utils.NormalizeEmail(email), code, string(purpose), v.ttl)
	if err := v.sender.Send(ctx, msg); err != nil {
		if delErr := v.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back OTP record", logger.Err(delErr), "purpose", purpose)
		}
		metrics.OTPRequests.WithLabelValues(string(purpose), "send_failed").Inc()
		logger.ErrorContext(ctx, "Failed to send OTP email", logger.Err(err), "purpose", purpose)
		return ErrDelivery.Wrap(err)
	}

	metrics.OTPRequests.WithLabelValues(string(purpose), "sent").Inc()
	logger.InfoContext(ctx, "OTP issued", "purpose", purpose, "expires_at", rec.ExpiresAt)
	return nil
}

// Verify checks code against the active record for email. The checks run in
// a fixed order: missing, expired, out of attempts, wrong code. The whole
// check-and-count step is one store Update, so concurrent calls against a
// shared store never grant more attempts than allowed.
func (v *Verifier) Verify(ctx context.Context, email, code string, purpose Purpose) error {
	key := Key(email, purpose)
	unlock := v.locks.Lock(key)
	defer unlock()

	var (
		outcome   string
		remaining int
		matches   = make(map[string]bool)
	)
	err := v.store.Update(ctx, key, func(rec *Record) Mutation {
		switch {
		case rec == nil:
			outcome = "not_found"
			return Mutation{}
		case v.now().After(rec.ExpiresAt):
			outcome = "expired"
			return Mutation{Delete: true}
		case rec.Attempts >= v.maxAttempts:
			outcome = "exhausted"
			return Mutation{Delete: true}
		}

		// bcrypt is slow and Update may retry with the same record
		ok, seen := matches[rec.CodeHash]
		if !seen {
			ok = bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) == nil
			matches[rec.CodeHash] = ok
		}
		if !ok {
			outcome = "invalid"
			rec.Attempts++
			remaining = v.maxAttempts - rec.Attempts
			return Mutation{Record: rec, Retain: v.retention(rec)}
		}

		outcome = "ok"
		return Mutation{Delete: true}
	})
	if err != nil {
		outcome = "store_error"
	}
	metrics.OTPVerifications.WithLabelValues(string(purpose), outcome).Inc()

	switch {
	case err != nil:
		return ErrStore.Wrap(err)
	case outcome == "not_found":
		return ErrNotFound
	case outcome == "expired":
		return ErrExpired
	case outcome == "exhausted":
		return ErrAttemptsExhausted
	case outcome == "invalid":
		return ErrInvalidCode.
			WithMessage(fmt.Sprintf("the verification code is not correct, %d attempts remaining", remaining)).
			WithDetails(map[string]any{"remaining_attempts": remaining})
	}

	logger.InfoContext(ctx, "OTP verified", "purpose", purpose)
	return nil
}
