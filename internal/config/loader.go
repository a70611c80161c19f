// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` value from five layers (highest
precedence last):

  1. Built-in defaults (see defaults.go).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. Optional `conf/global.yaml`.
  4. Environment variables prefixed `IZONE_`, where `__` maps to “.”
     (e.g., `IZONE_HTTP__LISTEN_ADDR → http.listen_addr`).
  5. Flat names kept from the original deployment surface, such as
     `DATABASE_URL`, `SECRET_KEY`, and `SMTP_PASSWORD`.

After merging, `vault:` references are resolved, the tree is unmarshalled
into strongly-typed structs, the deployment mode is detected from the
platform marker, and the result is validated.  The caller owns the
returned pointer; there is no package-level copy.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the real logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// SecretPrefix marks a value that must be fetched from the secret store.
const SecretPrefix = "vault:"

// SecretResolver turns a `vault:<mount>/<path>#<key>` reference into the
// plain secret.  *vault.Client satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Options tunes Load.  The zero value is valid.
type Options struct {
	Root    string         // overrides root discovery when non-empty
	Secrets SecretResolver // nil disables vault: resolution
}

// ErrUnresolvedSecret is returned when a vault: reference is present but no
// resolver was supplied.
var ErrUnresolvedSecret = errors.New("config: vault reference without resolver")

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves IZONE_ROOT or climbs directories until conf/ is found.
func rootDir() string {
	if r := os.Getenv("IZONE_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if fi, err := os.Stat(filepath.Join(dir, "conf")); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, .env, YAML, and env overrides, then validates.
func Load(ctx context.Context, opts Options) (*Config, error) {
	root := opts.Root
	if root == "" {
		root = rootDir()
	}
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config yaml %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.ProviderWithValue("IZONE_", ".", envValue), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := k.Load(confmap.Provider(legacyEnv(os.Getenv), "."), nil); err != nil {
		return nil, fmt.Errorf("config legacy env: %w", err)
	}

	if err := resolveSecrets(ctx, k, opts.Secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Paths.Root = root
	cfg.Mode = DetectMode(os.Getenv)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config validate: %w", err)
	}

	zap.S().Infow("config loaded",
		"mode", cfg.Mode.String(),
		"listen_addr", cfg.HTTP.ListenAddr,
		"database", redactURL(cfg.DatabaseURL()),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envValue maps IZONE_HTTP__LISTEN_ADDR to http.listen_addr and splits
// list-valued keys on commas.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, "IZONE_"), "__", "."))
	switch key {
	case "cors.allowed_origins", "http.trusted_proxies":
		return key, splitList(value)
	}
	return key, value
}

// legacyEnv maps the flat variable names of the original settings object
// onto koanf keys.  Only variables that are set are returned.
func legacyEnv(getenv func(string) string) map[string]any {
	names := map[string]string{
		"DATABASE_URL":                "database.url",
		"SECRET_KEY":                  "auth.secret_key",
		"ALGORITHM":                   "auth.algorithm",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "auth.access_token_expire_minutes",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "auth.refresh_token_expire_days",
		"MAX_FILE_SIZE":               "uploads.max_file_size",
		"UPLOAD_DIR":                  "uploads.dir",
		"SMTP_HOST":                   "smtp.host",
		"SMTP_PORT":                   "smtp.port",
		"SMTP_USER":                   "smtp.user",
		"SMTP_PASSWORD":               "smtp.password",
		"DEBUG":                       "app.debug",
		"APP_NAME":                    "app.name",
		"APP_VERSION":                 "app.version",
	}

	out := make(map[string]any)
	for envName, key := range names {
		if v := getenv(envName); v != "" {
			out[key] = v
		}
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		out["cors.allowed_origins"] = splitList(v)
	}
	if v := getenv("TRUSTED_PROXIES"); v != "" {
		out["http.trusted_proxies"] = splitList(v)
	}
	if p := getenv("PORT"); p != "" {
		out["http.listen_addr"] = ":" + p
	}
	return out
}

// splitList accepts "a,b" as well as the JSON-ish `["a", "b"]` form.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveSecrets replaces every string value that starts with SecretPrefix.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	for _, key := range k.Keys() {
		s, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(s, SecretPrefix) {
			continue
		}
		if res == nil {
			return fmt.Errorf("%w: %s", ErrUnresolvedSecret, key)
		}
		val, err := res.Resolve(ctx, strings.TrimPrefix(s, SecretPrefix))
		if err != nil {
			return fmt.Errorf("config secret %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config secret %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

// redactURL drops the password portion of a user:pass@ URL for logging.
func redactURL(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return u
	}
	creds := u[scheme+3 : at]
	if i := strings.IndexByte(creds, ':'); i != -1 {
		creds = creds[:i] + ":***"
	}
	return u[:scheme+3] + creds + u[at:]
}
