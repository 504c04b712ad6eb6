package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may connect.
type OriginPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
	log      *slog.Logger
}

// NewOriginPolicy normalizes origins to lowercase scheme://host. Invalid entries
// are logged and skipped; "*" allows every origin.
func NewOriginPolicy(origins []string, log *slog.Logger) *OriginPolicy {
	p := &OriginPolicy{
		allowed: make(map[string]struct{}, len(origins)),
		log:     log,
	}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}

	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// AllowAll reports whether the wildcard was configured.
func (p *OriginPolicy) AllowAll() bool {
	return p.allowAll
}

// Allows reports whether a non-empty Origin header value is permitted.
func (p *OriginPolicy) Allows(origin string) bool {
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if p.allowAll {
		return true
	}

	_, exists := p.allowed[normalized]
	return exists
}

// CheckOrigin is the upgrader hook. Requests without an Origin header come from
// non-browser clients and are accepted.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.Allows(origin) {
		return true
	}

	p.log.Warn("blocked websocket connection from disallowed origin", "origin", origin)
	return false
}
