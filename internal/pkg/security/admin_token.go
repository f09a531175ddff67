package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
)

// VerifyAdminToken compares a presented token against the configured
// secret in constant time. Both sides are hashed first so tokens of
// different lengths take the same comparison path and no length or prefix
// information leaks through timing. An empty configured secret always
// fails: operator endpoints stay closed until the token is provisioned.
func VerifyAdminToken(presented, configured string) bool {
	p := strings.TrimSpace(presented)
	c := strings.TrimSpace(configured)
	if p == "" || c == "" {
		return false
	}
	pSum := sha256.Sum256([]byte(p))
	cSum := sha256.Sum256([]byte(c))
	return hmac.Equal(pSum[:], cSum[:])
}
