package sepay

import (
	"crypto/subtle"
	"strings"
)

var authSchemes = []string{"apikey ", "bearer "}

// Authorize checks an Authorization header of the form "Apikey <secret>" or
// "Bearer <secret>". An empty configured secret rejects everything.
func Authorize(header, secret string) bool {
	if secret == "" {
		return false
	}
	header = strings.TrimSpace(header)
	for _, scheme := range authSchemes {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			token := strings.TrimSpace(header[len(scheme):])
			return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
		}
	}
	return false
}
