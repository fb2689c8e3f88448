// Package store is the schema-driven data engine of the reference backend.
// Every admin entity is served by the same code path: records live in
// per-entity data_* tables whose shape is derived from the entity
// descriptor, and all CRUD, search, sort and pagination is generic.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/steward/internal/models"
	"github.com/aethra/steward/internal/security"
	"github.com/aethra/steward/schema"
)

// ErrNotFound is returned when a record lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Record is one row of an entity table.
type Record = map[string]any

// Engine executes generic data operations against entity tables.
type Engine struct {
	db      *gorm.DB
	reg     *schema.Registry
	log     *slog.Logger
	dialect string
}

// NewEngine creates a data engine over db for the registered entities.
func NewEngine(db *gorm.DB, reg *schema.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{db: db, reg: reg, log: log, dialect: db.Dialector.Name()}
}

// tableName validates the entity's table name and returns it bare, the
// form gorm's Table() expects; gorm quotes it itself.
func (e *Engine) tableName(entity *schema.Entity) (string, error) {
	name := entity.TableName()
	if err := security.ValidateIdentifier(name); err != nil {
		return "", err
	}
	return name, nil
}

// quote quotes a validated identifier for raw SQL fragments.
func (e *Engine) quote(name string) string {
	return security.QuoteIdentifierDialect(e.dialect, name)
}

// Registry exposes the entity registry.
func (e *Engine) Registry() *schema.Registry {
	return e.reg
}

// ListParams are the supported list query parameters.
type ListParams struct {
	Page      int
	PerPage   int
	Search    string
	SortBy    string
	SortOrder string
	Status    *bool
}

// ListResult is one page of records plus Laravel-style page math.
type ListResult struct {
	Data        []Record
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int64
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// List returns a paginated, searched, sorted page of entity records.
func (e *Engine) List(ctx context.Context, entity *schema.Entity, params ListParams) (*ListResult, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = defaultPerPage
	}
	if params.PerPage > maxPerPage {
		params.PerPage = maxPerPage
	}

	// Fresh builder per finisher: gorm statements are not safe to reuse
	// across Count and Find.
	filtered := func() *gorm.DB {
		query := e.db.WithContext(ctx).Table(table)
		if params.Search != "" {
			if cond, args := e.searchCondition(entity, params.Search); cond != "" {
				query = query.Where(cond, args...)
			}
		}
		if params.Status != nil {
			if _, ok := entity.Field("status"); ok {
				query = query.Where(e.quote("status")+" = ?", *params.Status)
			}
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", entity.Code, err)
	}

	var rows []map[string]any
	err = filtered().
		Order(e.orderClause(entity, params.SortBy, params.SortOrder)).
		Offset((params.Page - 1) * params.PerPage).
		Limit(params.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity.Code, err)
	}

	lastPage := int(total) / params.PerPage
	if int(total)%params.PerPage > 0 {
		lastPage++
	}
	if lastPage < 1 {
		lastPage = 1
	}

	return &ListResult{
		Data:        rows,
		CurrentPage: params.Page,
		LastPage:    lastPage,
		PerPage:     params.PerPage,
		Total:       total,
	}, nil
}

// GetByUUID returns one record by its routing identifier.
func (e *Engine) GetByUUID(ctx context.Context, entity *schema.Entity, id string) (Record, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := e.db.WithContext(ctx).Table(table).Where("uuid = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", entity.Code, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Create validates and inserts a new record, returning it with its
// generated identifiers.
func (e *Engine) Create(ctx context.Context, entity *schema.Entity, data Record, userID *uuid.UUID) (Record, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}
	row, verr := e.validateAndFilter(entity, data)
	if verr != nil {
		return nil, verr
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	row["uuid"] = id
	row["created_at"] = now
	row["updated_at"] = now

	if err := e.db.WithContext(ctx).Table(table).Create(map[string]any(row)).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", entity.Code, err)
	}

	created, err := e.GetByUUID(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	e.audit(ctx, userID, entity, id, "create", nil, created)
	return created, nil
}

// Update validates and applies a full-draft update against uuid.
func (e *Engine) Update(ctx context.Context, entity *schema.Entity, id string, data Record, userID *uuid.UUID) (Record, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}
	old, err := e.GetByUUID(ctx, entity, id)
	if err != nil {
		return nil, err
	}

	row, verr := e.validateAndFilter(entity, data)
	if verr != nil {
		return nil, verr
	}
	row["updated_at"] = time.Now().UTC()

	if err := e.db.WithContext(ctx).Table(table).Where("uuid = ?", id).Updates(row).Error; err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", entity.Code, id, err)
	}

	updated, err := e.GetByUUID(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	e.audit(ctx, userID, entity, id, "update", old, updated)
	return updated, nil
}

// Delete removes a record by its numeric display id.
func (e *Engine) Delete(ctx context.Context, entity *schema.Entity, displayID string, userID *uuid.UUID) error {
	table, err := e.tableName(entity)
	if err != nil {
		return err
	}
	var rows []map[string]any
	if err := e.db.WithContext(ctx).Table(table).Where("id = ?", displayID).Limit(1).Find(&rows).Error; err != nil {
		return fmt.Errorf("delete %s/%s: %w", entity.Code, displayID, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	old := rows[0]

	res := e.db.WithContext(ctx).Exec("DELETE FROM "+e.quote(table)+" WHERE id = ?", displayID)
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", entity.Code, displayID, res.Error)
	}
	recordUUID, _ := old["uuid"].(string)
	e.audit(ctx, userID, entity, recordUUID, "delete", old, nil)
	return nil
}

// Dropdown runs the free-text lookup for select fields: id plus the label
// column, capped to a short option list.
func (e *Engine) Dropdown(ctx context.Context, entity *schema.Entity, labelField, search string) ([]Record, error) {
	table, err := e.tableName(entity)
	if err != nil {
		return nil, err
	}
	if err := security.ValidateIdentifier(labelField); err != nil {
		return nil, err
	}
	label := e.quote(labelField)

	query := e.db.WithContext(ctx).Table(table).Select("id, uuid, " + label)
	if search != "" {
		pattern := "%" + strings.ToLower(security.EscapeLikePattern(search)) + "%"
		query = query.Where(`LOWER(`+label+`) LIKE ? ESCAPE '\'`, pattern)
	}

	var rows []map[string]any
	if err := query.Order(label).Limit(20).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("dropdown %s: %w", entity.Code, err)
	}
	return rows, nil
}

// searchCondition ORs a case-insensitive LIKE over the entity's searchable
// text columns.
func (e *Engine) searchCondition(entity *schema.Entity, search string) (string, []any) {
	cols := entity.Searchable()
	if len(cols) == 0 {
		return "", nil
	}
	pattern := "%" + strings.ToLower(security.EscapeLikePattern(search)) + "%"
	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		if err := security.ValidateIdentifier(col); err != nil {
			continue
		}
		conds = append(conds, `LOWER(`+e.quote(col)+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// orderClause maps sort_by/sort_order onto a safe ORDER BY, defaulting to
// newest-first.
func (e *Engine) orderClause(entity *schema.Entity, sortBy, sortOrder string) string {
	if sortBy != "" && entity.SortAllowed(sortBy) {
		if err := security.ValidateIdentifier(sortBy); err == nil {
			dir := "ASC"
			if strings.EqualFold(sortOrder, "desc") {
				dir = "DESC"
			}
			return e.quote(sortBy) + " " + dir
		}
	}
	return e.quote("id") + " DESC"
}

func (e *Engine) audit(ctx context.Context, userID *uuid.UUID, entity *schema.Entity, recordUUID, action string, before, after Record) {
	var changed models.StringArray
	if before != nil && after != nil {
		for key, nv := range after {
			if ov, ok := before[key]; ok && fmt.Sprintf("%v", ov) != fmt.Sprintf("%v", nv) {
				changed = append(changed, key)
			}
		}
	}
	entry := models.AuditLog{
		UserID:        userID,
		EntityCode:    entity.Code,
		RecordUUID:    recordUUID,
		Action:        action,
		OldValues:     models.JSONB(before),
		NewValues:     models.JSONB(after),
		ChangedFields: changed,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.db.WithContext(ctx).Create(&entry).Error; err != nil {
		e.log.Warn("audit write failed", "entity", entity.Code, "action", action, "error", err)
	}
}
