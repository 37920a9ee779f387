package validators

import (
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
)

var syntax = validator.New()

// IsEmail checks address syntax only.
func IsEmail(email string) bool {
	return syntax.Var(email, "required,email") == nil
}

// IsEmailDomainValid checks that the domain part resolves (MX first,
// then A/AAAA). It performs DNS lookups.
func IsEmailDomainValid(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
