// Package auth provides authentication and authorization for the API.
//
// Users sign in with their email and password and receive a session cookie
// (scs, stored in the library database). API clients send a bearer token
// instead; only its SHA-256 hash is stored. Cookie-authenticated writes must
// carry a CSRF token (gorilla/csrf), bearer requests skip that check.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_TOKEN_EXPIRY=720h              # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5           # Failed logins before the account locks
//	AUTH_LOCKOUT_DURATION=30m
//	AUTH_LOGIN_RATE=12s                 # Per client login throttle
//	AUTH_LOGIN_BURST=5
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	api.Use(authMiddleware.RequireAuth())
//
// Extract the user in handlers:
//
//	user := auth.CurrentUser(c)
package auth
