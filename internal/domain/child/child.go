package child

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Child is the minimal roster entry the reminder engine needs: an
// identity for policy resolution and stats, and the parent's Telegram
// chat for the escalation channel. Task assignment and reward logic
// live elsewhere.
type Child struct {
	ID               uuid.UUID
	DisplayName      string
	ParentTelegramID sql.NullInt64 // Unset when the parent has not linked Telegram
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
