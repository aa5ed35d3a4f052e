package audit

import (
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"gorm.io/gorm"
)

// parquetRecord mirrors Record in the flat, string-typed shape parquet-go's
// reflection-based schema inference wants.
type parquetRecord struct {
	ID          string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OperationID string `parquet:"name=operation_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	EventType   string `parquet:"name=event_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	From        string `parquet:"name=from_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	To          string `parquet:"name=to_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount      string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	OccurredAt  string `parquet:"name=occurred_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportSnapshot writes every audit record in [start, end) to a local
// parquet file at path, for operators to hand to downstream compliance
// tooling without granting it direct database access.
func ExportSnapshot(db *gorm.DB, path string, start, end time.Time) error {
	var records []Record
	if err := db.Where("occurred_at >= ? AND occurred_at < ?", start, end).
		Order("occurred_at asc").Find(&records).Error; err != nil {
		return fmt.Errorf("audit: query records: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audit: create parquet file: %w", err)
	}
	defer file.Close()

	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetRecord), 1)
	if err != nil {
		return fmt.Errorf("audit: parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row := &parquetRecord{
			ID:          rec.ID.String(),
			OperationID: rec.OperationID,
			EventType:   rec.EventType,
			From:        rec.From,
			To:          rec.To,
			Amount:      rec.Amount,
			OccurredAt:  rec.OccurredAt.Format(time.RFC3339),
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return fmt.Errorf("audit: write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("audit: finalize parquet file: %w", err)
	}
	return nil
}
