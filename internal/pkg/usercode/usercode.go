// Package usercode derives and resolves the short linking codes users put into
// transfer memos.
package usercode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/gofiber/fiber/v2/log"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
)

const codeLength = 6

// maxCollisionAttempts bounds re-derivation when a derived code is already
// owned by another user.
const maxCollisionAttempts = 8

var (
	ErrUnknownCode = errors.New("unknown linking code")
	ErrEmptyUserID = errors.New("user id must not be empty")
	ErrCodeSpace   = errors.New("no free linking code after collision retries")
)

// Derive computes the deterministic code for userID: a wrapping 32-bit
// h*31+c hash over the UTF-16 code units, rendered in upper-case base 36,
// cut to six characters and left-padded with zeros.
func Derive(prefix, userID string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(userID)) {
		h = (h << 5) - h + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	s := strings.ToUpper(strconv.FormatInt(abs, 36))
	if len(s) > codeLength {
		s = s[:codeLength]
	}
	if len(s) < codeLength {
		s = strings.Repeat("0", codeLength-len(s)) + s
	}
	return prefix + "-" + s
}

// Resolver maps users to codes and back, persisting each code on first use.
type Resolver struct {
	repo   repository.UserCodeRepository
	prefix string
}

func NewResolver(repo repository.UserCodeRepository, prefix string) *Resolver {
	return &Resolver{repo: repo, prefix: strings.ToUpper(prefix)}
}

// CodeFor returns the user's code, creating it if needed. Concurrent callers
// for the same user converge on the single stored row.
func (r *Resolver) CodeFor(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}

	existing, err := r.repo.GetByUserID(ctx, userID)
	if err == nil {
		return existing.Code, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("load code for user: %w", err)
	}

	code, err := r.freeCode(ctx, userID)
	if err != nil {
		return "", err
	}

	if _, err := r.repo.CreateIfNotExists(ctx, &models.UserCode{UserID: userID, Code: code}); err != nil {
		return "", fmt.Errorf("store code for user: %w", err)
	}

	stored, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("reload code for user: %w", err)
	}
	return stored.Code, nil
}

// freeCode derives a code that is not yet taken by a different user.
func (r *Resolver) freeCode(ctx context.Context, userID string) (string, error) {
	seed := userID
	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		if attempt > 0 {
			seed = userID + ":" + strconv.Itoa(attempt)
		}
		code := Derive(r.prefix, seed)

		owner, err := r.repo.GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check code collision: %w", err)
		}
		if owner.UserID == userID {
			return code, nil
		}
		log.Warnf("usercode: %s already owned by another user, re-deriving (attempt %d)", code, attempt+1)
	}
	return "", ErrCodeSpace
}

// UserIDFor is the reverse lookup used to attribute donations.
func (r *Resolver) UserIDFor(ctx context.Context, code string) (string, error) {
	owner, err := r.repo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnknownCode
	}
	if err != nil {
		return "", fmt.Errorf("lookup code: %w", err)
	}
	return owner.UserID, nil
}
