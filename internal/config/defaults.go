package config

// defaults mirrors the settings a fresh checkout runs with.  The secret key
// and SMTP credentials are development placeholders; production values come
// from the environment or from `vault:` references.
func defaults() map[string]any {
	return map[string]any{
		"app.name":    "iZonehub Makerspace API",
		"app.version": "1.0.0",
		"app.debug":   true,

		"http.listen_addr": ":8000",
		"http.force_https": false,
		"http.trusted_proxies": []string{},

		"database.url": "sqlite:///./izonedevs.db",

		"auth.secret_key":                  "your-secret-key-change-in-production-make-it-very-long-and-random",
		"auth.algorithm":                   "HS256",
		"auth.access_token_expire_minutes": 30,
		"auth.refresh_token_expire_days":   7,

		"cors.allowed_origins": []string{
			"http://localhost:8080",
			"http://localhost:4000",
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:8080",
			"http://127.0.0.1:4000",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"https://*.vercel.app",
			"https://yourdomain.com",
		},

		"uploads.dir":           "uploads",
		"uploads.max_file_size": 10 << 20,

		"smtp.host":     "smtp.gmail.com",
		"smtp.port":     587,
		"smtp.user":     "",
		"smtp.password": "",

		"geoip.database": "",
	}
}
