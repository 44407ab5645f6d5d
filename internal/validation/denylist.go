package validation

import (
	"errors"
	"strings"
)

// ErrDisposableDomain is returned when an address belongs to a throwaway mail provider.
var ErrDisposableDomain = errors.New("validation: disposable email domains are not allowed")

var commonPasswords = newSet(
	"password", "password1", "password123", "password123!", "passw0rd", "p@ssw0rd", "p@ssword1",
	"123456", "12345678", "123456789", "1234567890", "qwerty", "qwerty123", "qwertyuiop",
	"abc123", "abcd1234", "111111", "iloveyou", "admin", "admin123", "welcome", "welcome1",
	"welcome123", "letmein", "monkey", "dragon", "football", "baseball", "sunshine",
	"princess", "master", "trustno1", "changeme", "secret", "qazwsx", "zaq12wsx",
	"123qwe", "1q2w3e4r", "aa123456",
)

var disposableDomains = []string{
	"10minutemail.com", "guerrillamail.com", "guerrillamail.net", "mailinator.com",
	"tempmail.com", "temp-mail.org", "throwawaymail.com", "yopmail.com",
	"getnada.com", "trashmail.com", "sharklasers.com", "maildrop.cc",
	"dispostable.com", "fakeinbox.com", "mintemail.com",
}

// IsCommonPassword reports whether password is on the common-password denylist, ignoring case.
func IsCommonPassword(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

// DomainPolicy rejects addresses whose domain is on a denylist.
type DomainPolicy struct {
	denied map[string]struct{}
}

// NewDomainPolicy builds a policy from the built-in disposable domains plus extra.
func NewDomainPolicy(extra ...string) *DomainPolicy {
	denied := newSet(disposableDomains...)
	for _, d := range extra {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			denied[d] = struct{}{}
		}
	}
	return &DomainPolicy{denied: denied}
}

// Check returns ErrDisposableDomain when the domain after the last '@' is denied.
func (p *DomainPolicy) Check(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return nil
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if _, denied := p.denied[domain]; denied {
		return ErrDisposableDomain
	}
	return nil
}

func newSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
