package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gtonstaking/core/events"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestRecorderEmitPersistsRecord(t *testing.T) {
	db := setupAuditDB(t)
	rec := NewRecorder(db)

	evt := events.Transfer{
		From:   [20]byte{0x00},
		To:     [20]byte{0x01},
		Amount: stubAmount("100"),
	}
	rec.Emit(evt)

	var records []Record
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	require.Equal(t, events.TypeTransfer, records[0].EventType)
	require.Equal(t, "100", records[0].Amount)
	require.NotEmpty(t, records[0].OperationID)
}

func TestRecorderEmitIgnoresNilEvent(t *testing.T) {
	db := setupAuditDB(t)
	rec := NewRecorder(db)
	rec.Emit(nil)

	var count int64
	require.NoError(t, db.Model(&Record{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestOperationIDIsDeterministic(t *testing.T) {
	attrs := map[string]string{"from": "a", "to": "b", "amount": "100"}
	first := operationID(events.TypeTransfer, attrs)
	second := operationID(events.TypeTransfer, attrs)
	require.Equal(t, first, second)

	other := operationID(events.TypeTransfer, map[string]string{"from": "a", "to": "b", "amount": "200"})
	require.NotEqual(t, first, other)
}

func TestExportSnapshotWritesParquetFile(t *testing.T) {
	db := setupAuditDB(t)
	rec := NewRecorder(db)
	rec.Emit(events.Transfer{From: [20]byte{0x02}, To: [20]byte{0x03}, Amount: stubAmount("50")})

	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.parquet")
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	require.NoError(t, ExportSnapshot(db, path, start, end))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}

type stubAmount string

func (a stubAmount) String() string { return string(a) }
