package audit

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lukechampine.com/blake3"

	"gtonstaking/core/events"
)

// Recorder implements events.Emitter by durably persisting every event as an
// audit.Record. It is meant to be combined with the live websocket feed via
// events.MultiEmitter, so the pool itself never needs to know the audit
// trail exists.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder constructs a Recorder writing to db.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Emit implements events.Emitter. Persistence failures are swallowed rather
// than propagated: a mutator has already committed by the time its event
// reaches here, and the audit trail must not be able to roll back or block
// pool state on a database outage.
func (r *Recorder) Emit(e events.Event) {
	if r == nil || r.db == nil || e == nil {
		return
	}
	payload := e.Event()
	attrs, err := json.Marshal(payload.Attributes)
	if err != nil {
		return
	}
	record := &Record{
		ID:          uuid.New(),
		OperationID: operationID(payload.Type, payload.Attributes),
		EventType:   payload.Type,
		From:        payload.Attributes["from"],
		To:          payload.Attributes["to"],
		Amount:      payload.Attributes["amount"],
		Attributes:  string(attrs),
		OccurredAt:  r.now().UTC(),
	}
	r.db.Create(record)
}

// operationID deterministically hashes an event's type and attributes so
// two exports of the same underlying operation correlate to the same id
// regardless of which process recorded them.
func operationID(eventType string, attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(eventType)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(attrs[k])
	}

	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
