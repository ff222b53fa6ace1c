package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ephemvid/ephemvid-client/internal/logging"
)

// CookieName is the cookie the backend reads the fingerprint from.
const CookieName = "fingerprint"

// Gate guarantees a valid identity before a backend request is sent.
type Gate interface {
	Ensure(ctx context.Context) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) error

func (f GateFunc) Ensure(ctx context.Context) error { return f(ctx) }

// FingerprintGate installs a fingerprint cookie into the shared cookie jar.
// The fingerprint is derived from the host and a per-install salt, so it is
// stable across restarts; only its expiry is renewed.
type FingerprintGate struct {
	mu      sync.Mutex
	store   Store
	jar     http.CookieJar
	target  *url.URL
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
	expires time.Time
}

func NewFingerprintGate(store Store, jar http.CookieJar, baseURL string, ttl time.Duration, logger *slog.Logger) (*FingerprintGate, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &FingerprintGate{
		store:  store,
		jar:    jar,
		target: target,
		ttl:    ttl,
		logger: logging.WithComponent(logger, "identity"),
		now:    time.Now,
	}, nil
}

// Ensure is safe for concurrent use; concurrent callers wait for the first
// one to finish installing the cookie.
func (g *FingerprintGate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.expires) {
		return nil
	}

	fp, expires, err := g.load(ctx)
	if err != nil {
		return err
	}
	if fp == "" || !now.Before(expires) {
		fp, err = g.compute(ctx)
		if err != nil {
			return err
		}
		expires = now.Add(g.ttl)
		if err := g.store.Set(ctx, KeyFingerprint, fp); err != nil {
			return fmt.Errorf("store fingerprint: %w", err)
		}
		if err := g.store.Set(ctx, KeyFingerprintExpires, strconv.FormatInt(expires.Unix(), 10)); err != nil {
			return fmt.Errorf("store fingerprint expiry: %w", err)
		}
		g.logger.Info("fingerprint issued", "fingerprint", logging.SanitizeToken(fp), "expires_at", expires)
	}

	g.jar.SetCookies(g.target, []*http.Cookie{{
		Name:   CookieName,
		Value:  fp,
		Path:   "/",
		MaxAge: int(expires.Sub(now).Seconds()),
	}})
	g.expires = expires
	return nil
}

// Fingerprint returns the stored fingerprint, or "" if none was issued yet.
func (g *FingerprintGate) Fingerprint(ctx context.Context) (string, error) {
	return g.store.Get(ctx, KeyFingerprint)
}

func (g *FingerprintGate) load(ctx context.Context) (string, time.Time, error) {
	fp, err := g.store.Get(ctx, KeyFingerprint)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read fingerprint: %w", err)
	}
	raw, err := g.store.Get(ctx, KeyFingerprintExpires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read fingerprint expiry: %w", err)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fp, time.Time{}, nil
	}
	return fp, time.Unix(secs, 0), nil
}

func (g *FingerprintGate) compute(ctx context.Context) (string, error) {
	salt, err := g.store.Get(ctx, KeyInstallSalt)
	if err != nil {
		return "", fmt.Errorf("read install salt: %w", err)
	}
	if salt == "" {
		salt = uuid.NewString()
		if err := g.store.Set(ctx, KeyInstallSalt, salt); err != nil {
			return "", fmt.Errorf("store install salt: %w", err)
		}
	}

	host, _ := os.Hostname()
	sum := sha256.Sum256([]byte(host + "|" + runtime.GOOS + "|" + runtime.GOARCH + "|" + salt))
	return hex.EncodeToString(sum[:16]), nil
}
