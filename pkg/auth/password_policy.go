package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/digimenu/internal/config"
)

// PasswordPolicy is the owner password rule set.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

type passwordRule struct {
	phrase string
	met    func(string) bool
}

// rules lists the active requirements in the order they are reported.
func (p *PasswordPolicy) rules() []passwordRule {
	var rules []passwordRule
	if p.MinLength > 0 {
		min := p.MinLength
		rules = append(rules, passwordRule{
			phrase: fmt.Sprintf("at least %d characters", min),
			met:    func(s string) bool { return utf8.RuneCountInString(s) >= min },
		})
	}
	if p.RequireUppercase {
		rules = append(rules, passwordRule{"an uppercase letter", containsRune(unicode.IsUpper)})
	}
	if p.RequireLowercase {
		rules = append(rules, passwordRule{"a lowercase letter", containsRune(unicode.IsLower)})
	}
	if p.RequireNumber {
		rules = append(rules, passwordRule{"a number", containsRune(unicode.IsDigit)})
	}
	if p.RequireSpecial {
		rules = append(rules, passwordRule{"a symbol", containsRune(isSymbol)})
	}
	return rules
}

// ValidatePassword reports every unmet requirement in one error, worded
// for the register form, e.g. "use at least 8 characters and a number".
func (p *PasswordPolicy) ValidatePassword(password string) error {
	var missing []string
	for _, rule := range p.rules() {
		if !rule.met(password) {
			missing = append(missing, rule.phrase)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.New("use " + joinPhrases(missing))
}

// Hint is shown under the register password field. It is empty when the
// policy accepts anything.
func (p *PasswordPolicy) Hint() string {
	rules := p.rules()
	if len(rules) == 0 {
		return ""
	}
	phrases := make([]string, len(rules))
	for i, r := range rules {
		phrases[i] = r.phrase
	}
	return "Use " + joinPhrases(phrases) + "."
}

func joinPhrases(p []string) string {
	if len(p) == 1 {
		return p[0]
	}
	return strings.Join(p[:len(p)-1], ", ") + " and " + p[len(p)-1]
}

func containsRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}

func isSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
