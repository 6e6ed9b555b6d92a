package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rwdledger/core/events"
	"rwdledger/core/types"
)

// DefaultListLimit caps List when the caller passes zero.
const DefaultListLimit = 100

const maxListLimit = 1000

var (
	// ErrNonceReplayed is returned when a caller reuses a request nonce.
	ErrNonceReplayed = errors.New("journal: nonce already used")
	// ErrDSNRequired is returned when Open receives an empty DSN.
	ErrDSNRequired = errors.New("journal: dsn must be configured")
)

// EventRecord is a committed ledger event.
type EventRecord struct {
	Seq        uint64    `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID         uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"id"`
	Type       string    `gorm:"size:64;index" json:"type"`
	Attributes string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NonceRecord marks a signed request nonce as consumed.
type NonceRecord struct {
	Caller    string `gorm:"primaryKey;size:64"`
	Nonce     uint64 `gorm:"primaryKey;autoIncrement:false"`
	Method    string `gorm:"size:8"`
	Path      string `gorm:"size:255"`
	CreatedAt time.Time
}

// Entry is the decoded form of an EventRecord.
type Entry struct {
	Seq        uint64            `json:"seq"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// AutoMigrate performs the schema migrations for the journal.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{}, &NonceRecord{})
}

// Journal persists committed events and consumed nonces.
type Journal struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the journal database. postgres:// and postgresql:// DSNs
// select Postgres; anything else is opened as SQLite.
func Open(dsn string) (*Journal, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		dialector = postgres.Open(trimmed)
	} else {
		dialector = sqlite.Open(trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle, migrating the schema.
func New(db *gorm.DB) (*Journal, error) {
	if db == nil {
		return nil, fmt.Errorf("journal: nil database")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append stores a rendered event and returns its sequence number.
func (j *Journal) Append(ctx context.Context, evt *types.Event) (uint64, error) {
	if evt == nil {
		return 0, fmt.Errorf("journal: nil event")
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("encode attributes: %w", err)
	}
	record := EventRecord{
		ID:         uuid.New(),
		Type:       evt.Type,
		Attributes: string(encoded),
		CreatedAt:  j.now().UTC(),
	}
	if err := j.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return record.Seq, nil
}

// List returns events with a sequence greater than after, oldest first. An
// empty eventType matches every event.
func (j *Journal) List(ctx context.Context, after uint64, limit int, eventType string) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query := j.db.WithContext(ctx).Where("seq > ?", after)
	if t := strings.TrimSpace(eventType); t != "" {
		query = query.Where("type = ?", t)
	}
	var records []EventRecord
	if err := query.Order("seq asc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		attrs := map[string]string{}
		if record.Attributes != "" {
			if err := json.Unmarshal([]byte(record.Attributes), &attrs); err != nil {
				return nil, fmt.Errorf("decode event %d: %w", record.Seq, err)
			}
		}
		entries = append(entries, Entry{
			Seq:        record.Seq,
			ID:         record.ID.String(),
			Type:       record.Type,
			Attributes: attrs,
			CreatedAt:  record.CreatedAt,
		})
	}
	return entries, nil
}

// ConsumeNonce records nonce as used by caller. Reusing a pair returns
// ErrNonceReplayed.
func (j *Journal) ConsumeNonce(ctx context.Context, caller string, nonce uint64, method, path string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return fmt.Errorf("journal: caller required")
	}
	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&NonceRecord{}).Where("caller = ? AND nonce = ?", caller, nonce).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrNonceReplayed
		}
		return tx.Create(&NonceRecord{
			Caller:    caller,
			Nonce:     nonce,
			Method:    method,
			Path:      path,
			CreatedAt: j.now().UTC(),
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrNonceReplayed
	}
	return err
}

// Emitter adapts the journal to events.Emitter. Failures are logged since
// the ledger has already committed when events are published.
type Emitter struct {
	journal *Journal
	logger  *slog.Logger
}

// NewEmitter returns an emitter appending to j.
func NewEmitter(j *Journal, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{journal: j, logger: logger}
}

// Emit implements events.Emitter.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || e.journal == nil || evt == nil {
		return
	}
	rendered := events.Render(evt)
	if _, err := e.journal.Append(context.Background(), rendered); err != nil {
		e.logger.Error("journal append failed",
			slog.String("event", rendered.Type),
			slog.Any("error", err))
	}
}
