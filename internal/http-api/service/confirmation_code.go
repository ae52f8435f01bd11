package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/http-api/models"

	"golang.org/x/crypto/hkdf"
)

// CodeGenerator mints and checks confirmation codes without persisting
// them. A code is an HMAC over the user's mutable state plus the issue
// timestamp, so editing the user (or minting a token, which bumps
// UpdatedAt) invalidates every outstanding code. Checking is
// side-effect-free and safely retryable.
type CodeGenerator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodeGenerator(secret string, ttl time.Duration) *CodeGenerator {
	return &CodeGenerator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// codeKey derives a per-user MAC key from the server secret.
func (g *CodeGenerator) codeKey(user *models.User) ([]byte, error) {
	kdf := hkdf.New(sha256.New, g.secret, []byte("reviewhub.confirmation-code"), []byte(user.ID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive code key: %w", err)
	}
	return key, nil
}

// userState collects the fields whose change must invalidate codes.
func userState(user *models.User) string {
	return strings.Join([]string{
		user.ID,
		user.Username,
		user.Email,
		user.Role,
		strconv.FormatInt(user.UpdatedAt.Unix(), 10),
	}, "|")
}

func (g *CodeGenerator) sign(user *models.User, ts int64) (string, error) {
	key, err := g.codeKey(user)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s|%d", userState(user), ts)
	sum := mac.Sum(nil)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:10]), nil
}

// Make issues a code for the user's current state.
func (g *CodeGenerator) Make(user *models.User) (string, error) {
	ts := g.now().Unix()
	sig, err := g.sign(user, ts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x-%s", ts, sig), nil
}

// Check reports whether the code is genuine for the user's current
// state and still inside the validity window.
func (g *CodeGenerator) Check(user *models.User, code string) bool {
	tsPart, sigPart, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 16, 64)
	if err != nil {
		return false
	}

	now := g.now().Unix()
	if ts > now || now-ts > int64(g.ttl.Seconds()) {
		return false
	}

	want, err := g.sign(user, ts)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(sigPart)) == 1
}
