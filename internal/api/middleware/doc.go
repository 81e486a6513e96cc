// Package middleware provides gin middleware for the bridge HTTP surface:
// CORS (gin-contrib/cors) and per-IP or global rate limiting (x/time/rate).
package middleware
