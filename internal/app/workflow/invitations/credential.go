package invitations

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"golang.org/x/crypto/bcrypt"
)

// Credential is a generated company mailbox login, returned once at issue.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const (
	passwordLen     = 16
	passwordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%*"
)

// newCredential derives a mailbox address on companyDomain from the
// invitee's email and generates a random password. It returns the clear
// credential and the bcrypt hash to store.
func newCredential(inviteeEmail, companyDomain string) (Credential, string, error) {
	domain := normalize.Domain(companyDomain)
	if domain == "" {
		return Credential{}, "", fmt.Errorf("company has no domain")
	}
	local := mailboxLocalPart(inviteeEmail)

	pw, err := randomPassword(passwordLen)
	if err != nil {
		return Credential{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, "", err
	}
	return Credential{Email: local + "@" + domain, Password: pw}, string(hash), nil
}

// mailboxLocalPart keeps the invitee's local part up to any "+tag", limited
// to [a-z0-9._-].
func mailboxLocalPart(email string) string {
	e := normalize.Email(email)
	if at := strings.IndexByte(e, '@'); at >= 0 {
		e = e[:at]
	}
	if plus := strings.IndexByte(e, '+'); plus >= 0 {
		e = e[:plus]
	}
	var sb strings.Builder
	for _, r := range e {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "user"
	}
	return strings.Trim(sb.String(), ".")
}

func randomPassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordCharset)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordCharset[v.Int64()]
	}
	return string(b), nil
}
