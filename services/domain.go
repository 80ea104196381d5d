package services

import (
	"net/url"
	"strings"
)

const (
	VerdictReliable   = "reliable"
	VerdictMixed      = "mixed"
	VerdictUnreliable = "unreliable"
)

// NormalizeDomain extracts the lower-case host from a URL, without port or
// www. prefix. Bare hosts ("example.com/a") are accepted. It returns "" when
// no host can be found.
func NormalizeDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// DomainVerdict labels a domain by the share of its analyses judged fake.
func DomainVerdict(fakeRatio float64) string {
	switch {
	case fakeRatio >= 0.6:
		return VerdictUnreliable
	case fakeRatio >= 0.3:
		return VerdictMixed
	default:
		return VerdictReliable
	}
}
