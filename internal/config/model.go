// internal/config/model.go
//
// Typed configuration model for the iZonehub API.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • built-in defaults                       – lowest precedence,
//   • optional `conf/.env`                    – dotenv values,
//   • optional `conf/global.yaml`             – primary static file,
//   • `IZONE_`-prefixed environment overrides,
//   • flat legacy names (`DATABASE_URL`, …)   – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the
// secret resolver *before* unmarshalling, so the model never stores Vault
// references, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Paths` and `Mode` are filled at runtime; YAML must not set them.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "path/filepath"

//
// App section
//

// App holds identity and debug flags reported by the root endpoint.
type App struct {
	Name    string `koanf:"name"    validate:"required"`
	Version string `koanf:"version" validate:"required"`
	Debug   bool   `koanf:"debug"`
}

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`

	// TrustedProxies are CIDRs whose X-Forwarded-For and X-Real-Ip
	// headers are believed.  Empty means the socket peer is the client.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr|ip"`
}

//
// Database section
//

// Database holds the configured (persistent) connection URL.  The URL the
// process actually connects to is derived by Config.DatabaseURL.
type Database struct {
	URL string `koanf:"url" validate:"required"`
}

//
// Auth section
//

// Auth holds token signing material and lifetimes.
type Auth struct {
	SecretKey                string `koanf:"secret_key"                  validate:"required,min=16"`
	Algorithm                string `koanf:"algorithm"                   validate:"required,oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int    `koanf:"access_token_expire_minutes" validate:"gt=0"`
	RefreshTokenExpireDays   int    `koanf:"refresh_token_expire_days"   validate:"gt=0"`
}

//
// CORS section
//

// CORS lists allowed origins.  Entries may contain one `*` wildcard, for
// example `https://*.vercel.app`.
type CORS struct {
	AllowedOrigins []string `koanf:"allowed_origins" validate:"dive,required,origin"`
}

//
// Uploads section
//

// Uploads configures the local asset directory served under /uploads.
type Uploads struct {
	Dir         string `koanf:"dir"           validate:"required"`
	MaxFileSize int64  `koanf:"max_file_size" validate:"gt=0"`
}

//
// SMTP section
//

// SMTP configures outbound mail for contact notifications.  An empty User
// disables real delivery; messages are logged instead.
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// GeoIP points at an optional GeoLite2-City database used by the access log.
type GeoIP struct {
	Database string `koanf:"database"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  Root is the discovered project root (or
// IZONE_ROOT override) so later code can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load.  It is constructed
// once at startup and passed explicitly to bootstrap and composition.
type Config struct {
	App      App      `koanf:"app"`
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	CORS     CORS     `koanf:"cors"`
	Uploads  Uploads  `koanf:"uploads"`
	SMTP     SMTP     `koanf:"smtp"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"`
	Mode     Mode     `koanf:"-"`
}

// DatabaseURL returns the effective connection URL for the mode captured
// at load time.  The result never changes for the life of the Config.
func (c *Config) DatabaseURL() string {
	return EffectiveDatabaseURL(c.Mode, c.Database.URL)
}

// UploadDir resolves Uploads.Dir against Paths.Root.
func (c *Config) UploadDir() string {
	dir := c.Uploads.Dir
	if !filepath.IsAbs(dir) && c.Paths.Root != "" {
		dir = filepath.Join(c.Paths.Root, dir)
	}
	return dir
}
