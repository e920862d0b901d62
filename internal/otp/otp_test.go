package otp

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func hashOf(t *testing.T, code string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestGenerateFormat(t *testing.T) {
	code, hash, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !codePattern.MatchString(code) {
		t.Errorf("generated code %q is not 4 digits", code)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		t.Errorf("stored hash does not match issued code: %v", err)
	}
}

func TestExpiryFor(t *testing.T) {
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)

	// Pickup one hour away: expiry pinned to pickup minus 30 minutes.
	pickup := now.Add(time.Hour)
	if got, want := ExpiryFor(pickup, now), pickup.Add(-30*time.Minute); !got.Equal(want) {
		t.Errorf("near pickup expiry = %v, want %v", got, want)
	}

	// Pickup tomorrow: plain 15 minute TTL.
	pickup = now.Add(24 * time.Hour)
	if got, want := ExpiryFor(pickup, now), now.Add(15*time.Minute); !got.Equal(want) {
		t.Errorf("far pickup expiry = %v, want %v", got, want)
	}
}

func TestNeedsRegeneration(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)

	if NeedsRegeneration(base, base.Add(4*time.Minute)) {
		t.Error("4 minute drift should keep the existing code")
	}
	if !NeedsRegeneration(base, base.Add(6*time.Minute)) {
		t.Error("6 minute drift must force a new code")
	}
	if !NeedsRegeneration(base, base.Add(-6*time.Minute)) {
		t.Error("drift is symmetric; earlier expiry must also regenerate")
	}
}

func TestVerifyLadder(t *testing.T) {
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	valid := Challenge{Hash: hashOf(t, "4321"), ExpiresAt: now.Add(10 * time.Minute)}

	tests := []struct {
		name      string
		challenge Challenge
		supplied  string
		want      error
	}{
		{"never issued", Challenge{}, "4321", ErrNotFound},
		{"already verified", Challenge{Hash: valid.Hash, ExpiresAt: valid.ExpiresAt, Verified: true}, "4321", ErrAlreadyVerified},
		{"expired", Challenge{Hash: valid.Hash, ExpiresAt: now.Add(-time.Minute)}, "4321", ErrExpired},
		{"too short", valid, "432", ErrMalformed},
		{"not numeric", valid, "43a1", ErrMalformed},
		{"wrong code", valid, "1234", ErrMismatch},
		{"match", valid, "4321", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.challenge.Verify(tt.supplied, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifySingleUse(t *testing.T) {
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	c := Challenge{Hash: hashOf(t, "0042"), ExpiresAt: now.Add(5 * time.Minute)}

	if err := c.Verify("0042", now); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}

	// The store flips the verified flag in the same transaction; a second
	// attempt sees the used challenge.
	c.Verified = true
	if err := c.Verify("0042", now); !errors.Is(err, ErrAlreadyVerified) {
		t.Errorf("second verification = %v, want ErrAlreadyVerified", err)
	}
}

func TestExpiryThirtyMinutesBeforeNearPickup(t *testing.T) {
	now := time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC)
	pickup := now.Add(time.Hour)

	expiry := ExpiryFor(pickup, now)
	c := Challenge{Hash: hashOf(t, "7777"), ExpiresAt: expiry}

	// 29 minutes before pickup is past the expiry line.
	at := pickup.Add(-29 * time.Minute)
	if err := c.Verify("7777", at); !errors.Is(err, ErrExpired) {
		t.Errorf("verification inside the 30 minute lead window = %v, want ErrExpired", err)
	}
}
