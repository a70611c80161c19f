// internal/vault/vault.go
//
// Vault client wrapper used by the config loader.
//
// Context
// -------
//   - Provides a concurrency-safe wrapper around the HashiCorp Vault Go SDK.
//   - Adds simple KV-v2 helpers and per-key caching.
//   - Config values of the form `vault:<mount>/<path>#<key>` are handed to
//     Resolve, so SMTP passwords and signing keys never live in flat files.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(log.Infof)            // during boot, if VAULT_ADDR set.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)  // anywhere in the app.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// DefaultTTL caches resolved config secrets for the life of a boot.
const DefaultTTL = 10 * time.Minute

// ErrBadReference is returned when a reference lacks the `#key` suffix.
var ErrBadReference = errors.New("vault: reference must be <mount>/<path>#<key>")

//
// SECTION 1.  Public façade
//

// kvReader is the slice of the SDK the client needs; tests swap it out.
type kvReader interface {
	Get(ctx context.Context, mount, path string) (map[string]any, error)
}

type sdkReader struct{ api *vault.Client }

func (s sdkReader) Get(ctx context.Context, mount, path string) (map[string]any, error) {
	sec, err := s.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	kv    kvReader
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client from the standard environment.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
func New(logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return newWithReader(sdkReader{api: apiCli}, logFn), nil
}

func newWithReader(kv kvReader, logFn func(string, ...any)) *Client {
	return &Client{
		kv:    kv,
		logFn: logFn,
		cache: make(map[string]cached),
	}
}

// Resolve implements config.SecretResolver for `<mount>/<path>#<key>`.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return c.GetKV(ctx, path, key, DefaultTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	data, err := c.kv.Get(ctx, mount, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	c.logFn("vault: resolved %s", canonical)
	return sval, nil
}

//
// SECTION 2.  Helpers
//

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
