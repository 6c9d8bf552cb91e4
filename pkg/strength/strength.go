// Package strength scores candidate passwords and explains how to improve them.
package strength

import (
	"strings"
	"unicode/utf8"
)

// MinLength is the shortest password that passes the length check.
const MinLength = 8

// MinAcceptableScore is the lowest score a form may submit.
const MinAcceptableScore = 2

// Suggestion messages, in the order checks run.
const (
	MsgTooShort     = "Password must be at least 8 characters long"
	MsgNoUpper      = "Add uppercase letters"
	MsgNoLower      = "Add lowercase letters"
	MsgNoDigit      = "Add numbers"
	MsgNoSpecial    = "Add special characters (e.g., !@#$%)"
	MsgCommon       = "Avoid common passwords"
	MsgPersonalInfo = "Avoid using personal information in your password"
	MsgRequired     = "Password is required"
)

// commonPasswords are rejected outright, compared case-insensitively.
var commonPasswords = []string{"password", "123456", "qwerty", "admin", "welcome"}

// Identity is the personal information a password must not contain.
// Empty fields are ignored.
type Identity struct {
	Username string
	Email    string
	Name     string
}

// Result is the outcome of Evaluate.
type Result struct {
	// Score runs from 0 (very weak) to 4 (strong).
	Score int

	// Suggestions lists a message per failed check, in check order.
	Suggestions []string

	// Warning is the first suggestion, or MsgRequired for an empty password.
	Warning string

	// Acceptable reports Score >= MinAcceptableScore.
	Acceptable bool
}

// Label names the score for display.
func (r Result) Label() string {
	switch r.Score {
	case 4:
		return "Strong"
	case 3:
		return "Good"
	case 2:
		return "Fair"
	case 1:
		return "Weak"
	default:
		return "Very weak"
	}
}

// Evaluate scores password against the fixed list of checks.
func Evaluate(password string, id Identity) Result {
	if password == "" {
		return Result{Score: 0, Warning: MsgRequired}
	}

	var suggestions []string
	fail := func(msg string) { suggestions = append(suggestions, msg) }

	if utf8.RuneCountInString(password) < MinLength {
		fail(MsgTooShort)
	}
	if !strings.ContainsFunc(password, isUpper) {
		fail(MsgNoUpper)
	}
	if !strings.ContainsFunc(password, isLower) {
		fail(MsgNoLower)
	}
	if !strings.ContainsFunc(password, isDigit) {
		fail(MsgNoDigit)
	}
	if !strings.ContainsFunc(password, isSpecial) {
		fail(MsgNoSpecial)
	}
	if isCommon(password) {
		fail(MsgCommon)
	}
	if containsPersonalInfo(password, id) {
		fail(MsgPersonalInfo)
	}

	score := scoreFor(len(suggestions))
	res := Result{
		Score:       score,
		Suggestions: suggestions,
		Acceptable:  score >= MinAcceptableScore,
	}
	if len(suggestions) > 0 {
		res.Warning = suggestions[0]
	}
	return res
}

// scoreFor maps the number of failed checks to a score.
func scoreFor(failed int) int {
	return max(4-failed, 0)
}

// Character classes are ASCII only; any other rune counts as special.
func isUpper(r rune) bool   { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool   { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool   { return r >= '0' && r <= '9' }
func isSpecial(r rune) bool { return !isUpper(r) && !isLower(r) && !isDigit(r) }

func isCommon(password string) bool {
	for _, c := range commonPasswords {
		if strings.EqualFold(password, c) {
			return true
		}
	}
	return false
}

func containsPersonalInfo(password string, id Identity) bool {
	lower := strings.ToLower(password)
	for _, s := range []string{id.Username, id.Email, id.Name} {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
