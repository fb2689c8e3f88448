package store

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/aethra/steward/internal/security"
	"github.com/aethra/steward/schema"
)

// CreateEntityTable creates the data_* table for an entity if it does not
// exist: an autoincrementing display id, a uuid routing key, one column per
// declared field, and timestamps.
func CreateEntityTable(db *gorm.DB, entity *schema.Entity) error {
	if err := security.ValidateIdentifier(entity.TableName()); err != nil {
		return err
	}
	dialect := db.Dialector.Name()
	table := security.QuoteIdentifierDialect(dialect, entity.TableName())

	cols := []string{
		idColumn(dialect),
		security.QuoteIdentifierDialect(dialect, "uuid") + " VARCHAR(36) NOT NULL UNIQUE",
	}
	for i := range entity.Fields {
		field := &entity.Fields[i]
		if err := security.ValidateIdentifier(field.Name); err != nil {
			return fmt.Errorf("entity %s: %w", entity.Code, err)
		}
		quoted := security.QuoteIdentifierDialect(dialect, field.Name)
		cols = append(cols, quoted+" "+columnType(dialect, field))
	}
	cols = append(cols,
		security.QuoteIdentifierDialect(dialect, "created_at")+" "+timestampType(dialect),
		security.QuoteIdentifierDialect(dialect, "updated_at")+" "+timestampType(dialect),
	)

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func idColumn(dialect string) string {
	id := security.QuoteIdentifierDialect(dialect, "id")
	switch dialect {
	case "postgres":
		return id + " BIGSERIAL PRIMARY KEY"
	case "mysql":
		return id + " BIGINT AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite
		return id + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func columnType(dialect string, f *schema.Field) string {
	switch f.Type {
	case schema.TypeText:
		return "TEXT"
	case schema.TypeNumber:
		if dialect == "postgres" {
			return "DOUBLE PRECISION NOT NULL DEFAULT 0"
		}
		return "DOUBLE NOT NULL DEFAULT 0"
	case schema.TypeBool:
		return "BOOLEAN NOT NULL DEFAULT FALSE"
	case schema.TypeSelect:
		return "VARCHAR(64)"
	case schema.TypeFile:
		return "VARCHAR(500)"
	default:
		size := f.MaxLength
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	}
}

func timestampType(dialect string) string {
	switch dialect {
	case "postgres":
		return "TIMESTAMPTZ NOT NULL DEFAULT NOW()"
	case "mysql":
		return "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"
	default:
		return "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}
}
