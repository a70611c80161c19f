// internal/requestinfo/requestinfo.go
//
// Per-request client metadata: user-agent fingerprint, client IP, and an
// optional geolocation hint.  Values are inert and safe to log.
//
// Parsed user agents and geo lookups are memoized in bounded LRU caches;
// both are pure functions of their key.
//
// Dependencies
// • github.com/avct/uasurfer          (UA parsing)
// • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
// • github.com/hashicorp/golang-lru   (memoization)

package requestinfo

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/avct/uasurfer"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang"
)

// CacheSize bounds each memo cache.
const CacheSize = 4096

var uaCache = mustCache[string, UA](CacheSize)

func mustCache[K comparable, V any](n int) *lru.Cache[K, V] {
	c, err := lru.New[K, V](n)
	if err != nil {
		panic(err)
	}
	return c
}

// UA holds the parsed user-agent properties written to the access log.
type UA struct {
	Browser string // "Chrome", "Firefox", "Safari", ...
	Version string // "124.0.6367"
	OS      string // "MacOSX", "Windows", "Android", ...
	Device  string // "Desktop", "Phone", "Tablet", ...
	IsBot   bool
}

// Geo holds best-effort IP geolocation.  Fields are empty without a
// database or a match.
type Geo struct {
	CountryISO string
	City       string
}

// Info is attached to each request by Enrich.
type Info struct {
	IP  net.IP
	UA  UA
	Geo Geo
}

//
// Geo lookups
//

// Locator resolves IPs to a Geo.  A nil *Locator performs no lookups.
type Locator struct {
	reader *geoip2.Reader
	seen   *lru.Cache[string, Geo]
}

// OpenLocator opens a GeoLite2-City database.  An empty path returns a
// nil Locator and no error.
func OpenLocator(path string) (*Locator, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &Locator{reader: r, seen: mustCache[string, Geo](CacheSize)}, nil
}

// Lookup returns the Geo for ip.  Errors yield an empty Geo.
func (l *Locator) Lookup(ip net.IP) Geo {
	if l == nil || l.reader == nil || ip == nil {
		return Geo{}
	}
	key := ip.String()
	if g, ok := l.seen.Get(key); ok {
		return g
	}
	var g Geo
	if rec, err := l.reader.City(ip); err == nil {
		g = Geo{CountryISO: rec.Country.IsoCode, City: rec.City.Names["en"]}
	}
	l.seen.Add(key, g)
	return g
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil || l.reader == nil {
		return nil
	}
	return l.reader.Close()
}

//
// Parsing
//

// Parse builds Info for r.  Forwarding headers are honored only for
// requests arriving from one of proxies.
func Parse(r *http.Request, geo *Locator, proxies Proxies) Info {
	ip := proxies.ClientIP(r)
	return Info{IP: ip, UA: parseUA(r.UserAgent()), Geo: geo.Lookup(ip)}
}

//
// Client address
//

// Proxies lists the networks of trusted reverse proxies.  The zero value
// trusts nobody, so the client address is always the socket peer.
type Proxies []*net.IPNet

// ParseProxies parses CIDR blocks.  A bare address is treated as a
// single-host network.
func ParseProxies(cidrs []string) (Proxies, error) {
	out := make(Proxies, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if !strings.Contains(c, "/") {
			if ip := net.ParseIP(c); ip != nil && ip.To4() != nil {
				c += "/32"
			} else {
				c += "/128"
			}
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (p Proxies) trusts(ip net.IP) bool {
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client behind r.
//
// The socket peer (r.RemoteAddr) is the client unless it is a trusted
// proxy.  Then X-Forwarded-For is walked right to left and the first hop
// that is not itself a trusted proxy wins; X-Real-Ip is the fallback.
// Entries to the left of that hop are client-supplied and ignored.
func (p Proxies) ClientIP(r *http.Request) net.IP {
	peer := remoteIP(r)
	if peer == nil || !p.trusts(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			if !p.trusts(ip) {
				return ip
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	return peer
}

// ClientIP is the socket peer of r.  Forwarding headers are ignored.
func ClientIP(r *http.Request) net.IP {
	return Proxies(nil).ClientIP(r)
}

func remoteIP(r *http.Request) net.IP {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}

func parseUA(raw string) UA {
	if raw == "" {
		return UA{Device: "Unknown"}
	}
	if ua, ok := uaCache.Get(raw); ok {
		return ua
	}
	u := uasurfer.Parse(raw)
	ua := UA{
		Browser: u.Browser.Name.StringTrimPrefix(),
		Version: version(u.Browser.Version),
		OS:      u.OS.Name.StringTrimPrefix(),
		Device:  device(u.DeviceType),
		IsBot:   u.IsBot(),
	}
	uaCache.Add(raw, ua)
	return ua
}

// version renders Major.Minor.Patch without trailing ".0" groups.
func version(v uasurfer.Version) string {
	parts := []int{v.Major, v.Minor, v.Patch}
	for len(parts) > 1 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strconv.Itoa(p)
	}
	return strings.Join(out, ".")
}

func device(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
