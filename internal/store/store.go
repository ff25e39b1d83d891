// Package store persists the collaboration session so it survives restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Backend types accepted by Options.Type.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// PostgresOptions are the connection settings for a Postgres backend.
type PostgresOptions struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

func (o PostgresOptions) dsn() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		o.Host, o.Port, o.Username, o.Password, o.Database)
}

// Options select and configure the backend.
type Options struct {
	Type     string
	Path     string
	Postgres PostgresOptions
}

// Manager handles database connections and operations.
type Manager struct {
	DB      *gorm.DB
	SqlDB   *sql.DB
	Backend string
	Logger  zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens the configured backend. A Postgres backend that cannot be
// reached falls back to SQLite at opts.Path.
func (m *Manager) Connect(opts Options) error {
	var err error
	switch opts.Type {
	case TypePostgres:
		m.DB, err = m.getPostgresDB(opts.Postgres)
		if err == nil {
			m.Backend = TypePostgres
			if m.SqlDB, err = m.DB.DB(); err == nil {
				err = m.SqlDB.Ping()
			}
		}
		if err == nil {
			m.SqlDB.SetMaxOpenConns(10)
			m.Logger.Info().Msg("Connected to database")
			return nil
		}
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		fallthrough
	case TypeSQLite, "":
		m.DB, err = m.getSqliteDB(opts.Path)
		m.Backend = TypeSQLite
	case TypeMemory:
		m.DB, err = m.getSqliteDB("")
		m.Backend = TypeMemory
	default:
		return fmt.Errorf("unknown store type: %s", opts.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}

	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := m.SqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	return nil
}

func (m *Manager) getPostgresDB(opts PostgresOptions) (*gorm.DB, error) {
	m.Logger.Debug().Str("host", opts.Host).Str("database", opts.Database).Msg("Connecting to Postgres DB")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.dsn(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// getSqliteDB opens path, or a private in-memory database when path is empty.
func (m *Manager) getSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:scouthelper-%d?mode=memory&cache=shared", time.Now().UnixNano())
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Setup migrates the schema.
func (m *Manager) Setup() error {
	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(&SessionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// ErrNoSession is returned when no collaboration session is stored.
var ErrNoSession = errors.New("no stored session")

// SaveSession inserts or replaces the session with the same slug.
func (m *Manager) SaveSession(ctx context.Context, s Session) error {
	rec := recordFrom(s)
	err := m.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"password", "collaborating", "contributed", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.Slug, err)
	}
	return nil
}

// ActiveSession returns the most recently updated session still collaborating.
func (m *Manager) ActiveSession(ctx context.Context) (Session, error) {
	var rec SessionRecord
	err := m.DB.WithContext(ctx).
		Where("collaborating = ?", true).
		Order("updated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return rec.session(), nil
}

// SetCollaborating flips the collaborating flag of a stored session.
func (m *Manager) SetCollaborating(ctx context.Context, slug string, collaborating bool) error {
	res := m.DB.WithContext(ctx).Model(&SessionRecord{}).
		Where("slug = ?", slug).
		Update("collaborating", collaborating)
	if res.Error != nil {
		return fmt.Errorf("failed to update session %s: %w", slug, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoSession
	}
	return nil
}

// DeleteSession removes a stored session.
func (m *Manager) DeleteSession(ctx context.Context, slug string) error {
	return m.DB.WithContext(ctx).Where("slug = ?", slug).Delete(&SessionRecord{}).Error
}
