// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Domain lowercases a hostname and strips a leading "@" or "www.".
func Domain(s string) string {
	d := strings.ToLower(strings.TrimSpace(s))
	d = strings.TrimPrefix(d, "@")
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}

// EmailDomain returns the normalized domain part of an email, or "".
func EmailDomain(email string) string {
	e := Email(email)
	at := strings.LastIndexByte(e, '@')
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return Domain(e[at+1:])
}
