package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/tendant/digimenu/internal/config"
)

// Owner-facing reasons a registration email is refused.
var (
	errEmailRequired = errors.New("enter an email address")
	errEmailFormat   = errors.New("that does not look like an email address")
	errEmailBlocked  = errors.New("that email provider is not accepted, use your restaurant's address")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

const maxEmailLength = 254

// EmailPolicy decides which owner email addresses registration accepts.
type EmailPolicy struct {
	// Strict additionally requires a dotted domain and plain ASCII.
	Strict bool
	// BlockedDomains are refused outright, lower case.
	BlockedDomains map[string]struct{}
}

// NewEmailPolicy builds the policy from the validation settings.
func NewEmailPolicy(cfg config.ValidationConfig) EmailPolicy {
	p := EmailPolicy{Strict: cfg.StrictEmailValidation}
	for _, d := range cfg.BlockedEmailDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if p.BlockedDomains == nil {
			p.BlockedDomains = make(map[string]struct{})
		}
		p.BlockedDomains[d] = struct{}{}
	}
	return p
}

// Validate checks an owner's email address. The address is normalized
// before any check.
func (p EmailPolicy) Validate(email string) error {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return errEmailRequired
	}
	if len(normalized) > maxEmailLength {
		return fmt.Errorf("use an email address of at most %d characters", maxEmailLength)
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return errEmailFormat
	}
	if p.Strict && !emailRegex.MatchString(addr.Address) {
		return errEmailFormat
	}

	if _, blocked := p.BlockedDomains[emailDomain(addr.Address)]; blocked {
		return errEmailBlocked
	}
	return nil
}

// NormalizeEmail lowercases and trims. Owner emails match case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}
