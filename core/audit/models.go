// Package audit implements a durable relational record of every committed
// pool operation, independent of the LevelDB hot-state store: a compliance
// reviewer needs to answer "what happened and when", which a single
// overwritten JSON snapshot cannot answer once the next mutator commits.
package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is one committed pool operation: a transfer (including mint and
// burn), an approval, or an admin action, captured after the fact from the
// event it emitted. Harvest emits no event and so leaves no record.
type Record struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OperationID string    `gorm:"size:64;index"`
	EventType   string    `gorm:"size:64;index"`
	From        string    `gorm:"size:64;index"`
	To          string    `gorm:"size:64;index"`
	Amount      string    `gorm:"size:96"`
	Attributes  string    `gorm:"type:text"`
	OccurredAt  time.Time `gorm:"index"`
	CreatedAt   time.Time
}

// AutoMigrate creates or updates the audit schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Record{})
}
