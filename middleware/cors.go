package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig builds the cors configuration for a comma separated origin
// list. Entries may be "*" or a "*.example.com" subdomain wildcard; an empty
// list allows any origin without credentials.
func CORSConfig(origins string) cors.Config {
	allowed := splitOrigins(origins)
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowCredentials = true
	cfg.AllowOriginFunc = func(origin string) bool {
		return isOriginAllowed(origin, allowed)
	}
	return cfg
}

// CORS returns the cors middleware for the origin list.
func CORS(origins string) gin.HandlerFunc {
	return cors.New(CORSConfig(origins))
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// isOriginAllowed checks if origin is in allowed list
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		// Support wildcard subdomains
		if strings.HasPrefix(allowed, "*.") && strings.HasSuffix(origin, allowed[1:]) {
			return true
		}
	}
	return false
}
