// Package ledger records settled donations exactly once per gateway
// transaction id and backfills their attribution to users.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
)

var (
	ErrAlreadyClaimed = errors.New("donation already linked to another user")
	ErrNotFound       = errors.New("donation not found")
)

// Entry is the normalized donation handed over by the ingestion path.
type Entry struct {
	ExternalID      string
	Amount          int64
	MemoText        string
	DonorName       string
	BankAccount     string
	BankLabel       string
	TransactionDate string
	OccurredAt      time.Time
	LinkedUserID    string
	Metadata        map[string]any
}

// Record reports whether RecordIfNew wrote a row and which donation now owns
// the external id.
type Record struct {
	Created    bool
	DonationID uint
}

type Ledger struct {
	repo repository.DonationRepository
}

func New(repo repository.DonationRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Lookup returns the donation recorded for externalID, or nil when there is none.
func (l *Ledger) Lookup(ctx context.Context, externalID string) (*models.Donation, error) {
	donation, err := l.repo.GetByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup donation %s: %w", externalID, err)
	}
	return donation, nil
}

// RecordIfNew inserts the entry unless its external id is already recorded.
// A concurrent duplicate loses the insert and gets Created=false with the
// winner's id.
func (l *Ledger) RecordIfNew(ctx context.Context, e Entry) (Record, error) {
	if strings.TrimSpace(e.ExternalID) == "" {
		return Record{}, errors.New("external id must not be empty")
	}

	existing, err := l.Lookup(ctx, e.ExternalID)
	if err != nil {
		return Record{}, err
	}
	if existing != nil {
		return Record{Created: false, DonationID: existing.ID}, nil
	}

	donation := &models.Donation{
		ExternalID:       e.ExternalID,
		Gateway:          models.DonationGatewaySePay,
		Amount:           e.Amount,
		MemoText:         e.MemoText,
		DonorDisplayName: clip(e.DonorName, maxDonorNameRunes),
		BankAccount:      clip(e.BankAccount, maxBankAccountRunes),
		BankLabel:        clip(e.BankLabel, maxBankLabelRunes),
		Status:           models.DonationStatusCompleted,
		TransactionDate:  e.TransactionDate,
		OccurredAt:       e.OccurredAt.UTC(),
	}
	if e.LinkedUserID != "" {
		userID := e.LinkedUserID
		donation.LinkedUserID = &userID
	}
	if len(e.Metadata) > 0 {
		donation.Metadata = datatypes.JSONMap(e.Metadata)
	}

	created, err := l.repo.CreateIfNotExists(ctx, donation)
	if err != nil {
		return Record{}, fmt.Errorf("insert donation %s: %w", e.ExternalID, err)
	}
	if created && donation.ID != 0 {
		return Record{Created: true, DonationID: donation.ID}, nil
	}

	stored, err := l.repo.GetByExternalID(ctx, e.ExternalID)
	if err != nil {
		return Record{}, fmt.Errorf("reload donation %s: %w", e.ExternalID, err)
	}
	return Record{Created: created, DonationID: stored.ID}, nil
}

// Claim links an unattributed donation to userID. Claiming a donation that
// already belongs to userID succeeds; one owned by someone else does not.
func (l *Ledger) Claim(ctx context.Context, donationID uint, userID string) (*models.Donation, error) {
	donation, err := l.repo.GetByID(ctx, donationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load donation %d: %w", donationID, err)
	}
	if donation.IsLinked() {
		if *donation.LinkedUserID == userID {
			return donation, nil
		}
		return nil, ErrAlreadyClaimed
	}

	affected, err := l.repo.LinkUser(ctx, donationID, userID)
	if err != nil {
		return nil, fmt.Errorf("link donation %d: %w", donationID, err)
	}
	if affected == 0 {
		// Lost a race against another claim.
		return nil, ErrAlreadyClaimed
	}

	linked := userID
	donation.LinkedUserID = &linked
	return donation, nil
}

// ClaimByExternalIDs links every still-unattributed donation among
// externalIDs to userID and returns how many were linked.
func (l *Ledger) ClaimByExternalIDs(ctx context.Context, userID string, externalIDs []string) (int64, error) {
	ids := make([]string, 0, len(externalIDs))
	seen := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	n, err := l.repo.LinkUnclaimedByExternalIDs(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk link donations: %w", err)
	}
	return n, nil
}

// Column widths of the donations table; longer values would fail the insert
// on MySQL and the delivery could never be stored.
const (
	maxDonorNameRunes   = 100
	maxBankAccountRunes = 64
	maxBankLabelRunes   = 100
)

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
