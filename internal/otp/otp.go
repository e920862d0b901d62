package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound        = errors.New("otp: no code issued for this booking")
	ErrAlreadyVerified = errors.New("otp: code already verified")
	ErrExpired         = errors.New("otp: code expired")
	ErrMalformed       = errors.New("otp: code must be 4 digits")
	ErrMismatch        = errors.New("otp: code does not match")
)

var codePattern = regexp.MustCompile(`^[0-9]{4}$`)

const (
	// Pickups closer than this get their code pinned to the pickup window.
	nearPickupWindow = 2 * time.Hour
	pickupLeadTime   = 30 * time.Minute
	defaultTTL       = 15 * time.Minute

	// A reschedule that moves the computed expiry by more than this makes
	// the old code stale even if it has not expired yet.
	regenerateThreshold = 5 * time.Minute
)

// Generate mints a 4-digit pickup code. The plaintext is returned exactly
// once for delivery to the customer; only the bcrypt hash is stored.
func Generate() (code string, hash string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", "", fmt.Errorf("otp: generate: %w", err)
	}
	code = fmt.Sprintf("%04d", n.Int64())

	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("otp: hash: %w", err)
	}
	return code, string(h), nil
}

// ExpiryFor computes when a code issued now should stop working. Codes
// issued close to pickup expire 30 minutes before the handover so a stale
// code cannot be used at the gate; otherwise the code lives 15 minutes.
func ExpiryFor(pickupAt, now time.Time) time.Time {
	if pickupAt.Sub(now) <= nearPickupWindow {
		return pickupAt.Add(-pickupLeadTime)
	}
	return now.Add(defaultTTL)
}

// NeedsRegeneration reports whether a stored code is tied to an obsolete
// pickup window. Called after a reschedule with the freshly computed expiry.
func NeedsRegeneration(storedExpiry, recomputedExpiry time.Time) bool {
	delta := recomputedExpiry.Sub(storedExpiry)
	if delta < 0 {
		delta = -delta
	}
	return delta > regenerateThreshold
}

// Challenge is the verification state loaded from the booking row.
type Challenge struct {
	Hash      string
	ExpiresAt time.Time
	Verified  bool
}

// Verify runs the failure ladder in order: issued at all, single-use,
// unexpired, well-formed, matching. Each failure is a distinct sentinel so
// the caller can render a precise message.
func (c Challenge) Verify(supplied string, now time.Time) error {
	if c.Hash == "" {
		return ErrNotFound
	}
	if c.Verified {
		return ErrAlreadyVerified
	}
	if now.After(c.ExpiresAt) {
		return ErrExpired
	}
	if !codePattern.MatchString(supplied) {
		return ErrMalformed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(supplied)); err != nil {
		return ErrMismatch
	}
	return nil
}
