package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/steward/schema"
)

// ImportFieldError lists the failing messages for one attribute of a row.
type ImportFieldError struct {
	Attribute string   `json:"attribute"`
	Errors    []string `json:"errors"`
}

// ImportRowError collects the per-field failures of one CSV row. Row is
// 1-based over the data rows, excluding the header.
type ImportRowError struct {
	Row   int                `json:"row"`
	Field []ImportFieldError `json:"field"`
}

// Import reads a CSV upload whose header names entity attributes and
// inserts every row in one transaction. A single invalid row rejects the
// whole batch and reports each failing row.
func (e *Engine) Import(ctx context.Context, entity *schema.Entity, r io.Reader, userID *uuid.UUID) ([]ImportRowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("import %s: read header: %w", entity.Code, err)
	}

	var rows []Record
	var failures []ImportRowError
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, ImportRowError{
				Row:   rowNum,
				Field: []ImportFieldError{{Attribute: "row", Errors: []string{"The row could not be parsed."}}},
			})
			continue
		}

		data := make(Record, len(header))
		for i, col := range header {
			if i < len(record) {
				data[col] = record[i]
			}
		}

		row, verr := e.validateAndFilter(entity, data)
		if verr != nil {
			failure := ImportRowError{Row: rowNum}
			for attr, msgs := range verr.Fields {
				failure.Field = append(failure.Field, ImportFieldError{Attribute: attr, Errors: msgs})
			}
			failures = append(failures, failure)
			continue
		}
		rows = append(rows, row)
	}

	if len(failures) > 0 {
		return failures, nil
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("import %s: no data rows", entity.Code)
	}

	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, row := range rows {
			row["uuid"] = uuid.NewString()
			row["created_at"] = now
			row["updated_at"] = now
			if err := tx.Table(table).Create(map[string]any(row)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", entity.Code, err)
	}
	e.audit(ctx, userID, entity, "", "import", nil, Record{"rows": len(rows)})
	return nil, nil
}

// Export writes the selected records as CSV: a header of every entity
// column followed by one line per requested uuid.
func (e *Engine) Export(ctx context.Context, entity *schema.Entity, uuids []string) ([]byte, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}

	query := e.db.WithContext(ctx).Table(table).Order("id")
	if len(uuids) > 0 {
		query = query.Where("uuid IN ?", uuids)
	}
	var rows []map[string]any
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("export %s: %w", entity.Code, err)
	}

	header := append([]string{"id", "uuid"}, entity.Columns()...)
	header = append(header, "created_at", "updated_at")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		line := make([]string, len(header))
		for i, col := range header {
			if v, ok := row[col]; ok && v != nil {
				line[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
