// Package identity assigns ids to new records.
package identity

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"yt/internal/config"
	"yt/internal/errors"
)

// Provider returns a fresh, collision resistant id for a record being
// created. title is informational only.
type Provider interface {
	NewID(ctx context.Context, title string) (string, error)
}

// Committer creates the commit a CommitProvider derives ids from.
type Committer interface {
	NewRecordCommit(ctx context.Context, message, tag string) (string, error)
}

// CommitProvider writes a marker commit and uses its hash as the id.
type CommitProvider struct {
	Committer Committer
	Tag       string
}

// NewID implements Provider.
func (p *CommitProvider) NewID(ctx context.Context, title string) (string, error) {
	hash, err := p.Committer.NewRecordCommit(ctx, "TICKETPREP: "+title, p.Tag)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(strings.TrimSpace(hash))
	if err != nil || len(raw) == 0 {
		return "", errors.Newf(errors.BackendFailure, err, "backend returned a malformed commit id %q", hash)
	}
	return Hex(raw), nil
}

// UUIDProvider derives ids from random UUIDs, for stores that should not
// write marker commits.
type UUIDProvider struct {
	// New defaults to uuid.NewRandom.
	New func() (uuid.UUID, error)
}

// NewID implements Provider.
func (p *UUIDProvider) NewID(context.Context, string) (string, error) {
	gen := p.New
	if gen == nil {
		gen = uuid.NewRandom
	}
	u, err := gen()
	if err != nil {
		return "", errors.New(errors.InternalError, "failed to generate uuid", err)
	}
	return Hex(u[:]), nil
}

// Hex renders b as fixed-width lowercase hex, two digits per byte.
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// IsID reports whether s looks like an id produced by a Provider.
func IsID(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ForConfig picks the provider named by cfg.Identity.
func ForConfig(cfg *config.Config, committer Committer) Provider {
	if cfg.Identity == config.IdentityUUID {
		return &UUIDProvider{}
	}
	return &CommitProvider{Committer: committer, Tag: cfg.NewRecordTag}
}
