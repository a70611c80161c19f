package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEffectiveDatabaseURL(t *testing.T) {
	cases := []struct {
		mode Mode
		in   string
		want string
	}{
		{ModeEphemeral, "sqlite:///./izonedevs.db", MemoryDatabaseURL},
		{ModeEphemeral, "postgres://db/app", MemoryDatabaseURL},
		{ModePersistent, "sqlite:///./izonedevs.db", "sqlite:///./izonedevs.db"},
		{ModePersistent, "mysql://u:p@db:3306/app", "mysql://u:p@db:3306/app"},
	}
	for _, tc := range cases {
		if got := EffectiveDatabaseURL(tc.mode, tc.in); got != tc.want {
			t.Errorf("EffectiveDatabaseURL(%v, %q) = %q, want %q", tc.mode, tc.in, got, tc.want)
		}
		// Repeat calls must agree.
		if EffectiveDatabaseURL(tc.mode, tc.in) != EffectiveDatabaseURL(tc.mode, tc.in) {
			t.Errorf("EffectiveDatabaseURL not stable for %v", tc.mode)
		}
	}
}

func TestDetectMode(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	if got := DetectMode(getenv); got != ModePersistent {
		t.Fatalf("no marker: got %v, want persistent", got)
	}
	env[PlatformMarker] = "1"
	if got := DetectMode(getenv); got != ModeEphemeral {
		t.Fatalf("marker set: got %v, want ephemeral", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	cfg, err := Load(context.Background(), Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModePersistent {
		t.Fatalf("mode = %v, want persistent", cfg.Mode)
	}
	if cfg.DatabaseURL() != "sqlite:///./izonedevs.db" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL())
	}
	if cfg.Auth.AccessTokenExpireMinutes != 30 || cfg.Auth.RefreshTokenExpireDays != 7 {
		t.Fatalf("token lifetimes = %d/%d", cfg.Auth.AccessTokenExpireMinutes, cfg.Auth.RefreshTokenExpireDays)
	}
	if len(cfg.CORS.AllowedOrigins) != 10 {
		t.Fatalf("allowed origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Uploads.MaxFileSize != 10485760 {
		t.Fatalf("max file size = %d", cfg.Uploads.MaxFileSize)
	}
}

func TestLoad_EphemeralMarker(t *testing.T) {
	t.Setenv(PlatformMarker, "1")
	t.Setenv("DATABASE_URL", "mysql://u:p@db:3306/app")

	cfg, err := Load(context.Background(), Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeEphemeral {
		t.Fatalf("mode = %v, want ephemeral", cfg.Mode)
	}
	if cfg.Database.URL != "mysql://u:p@db:3306/app" {
		t.Fatalf("configured URL lost: %q", cfg.Database.URL)
	}
	if cfg.DatabaseURL() != MemoryDatabaseURL {
		t.Fatalf("effective URL = %q, want in-memory", cfg.DatabaseURL())
	}
}

func TestLoad_YAMLAndEnvPrecedence(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := []byte("http:\n  listen_addr: \":9000\"\nuploads:\n  dir: media\n")
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), yml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IZONE_UPLOADS__DIR", "assets")
	t.Setenv("ALLOWED_ORIGINS", `["https://a.example", "https://b.example"]`)

	cfg, err := Load(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000", cfg.HTTP.ListenAddr)
	}
	if cfg.Uploads.Dir != "assets" {
		t.Errorf("uploads dir = %q, want env override", cfg.Uploads.Dir)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func TestLoad_VaultReferences(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	t.Setenv("SMTP_PASSWORD", "vault:secret/izone#smtp_password")

	if _, err := Load(context.Background(), Options{Root: t.TempDir()}); !errors.Is(err, ErrUnresolvedSecret) {
		t.Fatalf("without resolver: err = %v, want ErrUnresolvedSecret", err)
	}

	cfg, err := Load(context.Background(), Options{
		Root:    t.TempDir(),
		Secrets: fakeResolver{"secret/izone#smtp_password": "s3cret"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SMTP.Password != "s3cret" {
		t.Fatalf("smtp password = %q", cfg.SMTP.Password)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	t.Setenv("SECRET_KEY", "short")
	if _, err := Load(context.Background(), Options{Root: t.TempDir()}); err == nil {
		t.Fatal("expected validation error for short secret key")
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("mysql://user:pw@db:3306/app")
	if got != "mysql://user:***@db:3306/app" {
		t.Fatalf("redactURL = %q", got)
	}
	if redactURL(MemoryDatabaseURL) != MemoryDatabaseURL {
		t.Fatal("redactURL altered URL without credentials")
	}
}

func TestLoad_RejectsBadOrigins(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	for _, origins := range []string{"*", "https://*.*.example", "ftp://files.example", "https://app.example/path"} {
		t.Setenv("ALLOWED_ORIGINS", origins)
		if _, err := Load(context.Background(), Options{Root: t.TempDir()}); err == nil {
			t.Errorf("ALLOWED_ORIGINS=%q: expected validation error", origins)
		}
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv(PlatformMarker, "")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

	cfg, err := Load(context.Background(), Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.HTTP.TrustedProxies) != 2 || cfg.HTTP.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("trusted proxies = %v", cfg.HTTP.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/33")
	if _, err := Load(context.Background(), Options{Root: t.TempDir()}); err == nil {
		t.Error("expected validation error for malformed CIDR")
	}
}
