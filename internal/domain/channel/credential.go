package channel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// Credential is the shared per-channel bearer token, stored as a relational
// record rather than process-global state. Tokens are fungible: concurrent
// refreshes last-write-win and a stale token self-heals on the next 401.
type Credential struct {
	ChannelID    uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is past its lifetime.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Common credential errors
var (
	ErrCredentialNotFound = shared.NewDomainError("CREDENTIAL_NOT_FOUND", "Channel credential not found")
)

// CredentialRepository persists the per-channel credential record.
type CredentialRepository interface {
	Find(ctx context.Context, channelID uuid.UUID) (*Credential, error)
	Save(ctx context.Context, credential *Credential) error
}
