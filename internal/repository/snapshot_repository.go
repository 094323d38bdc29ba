package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"riskcore/internal/models"
	"riskcore/internal/state"
	"riskcore/pkg/utils"
)

// Имя снапшота по умолчанию (одна строка на имя)
const DefaultSnapshotName = "riskcore"

// Ошибки репозитория снапшотов
var (
	ErrEmptySnapshotName = errors.New("snapshot name is required")
)

// SnapshotRepository хранит документы снапшотов в Postgres.
//
// Таблица snapshots держит по одной строке на имя, запись - upsert.
// Реализует контракт state.Store.
type SnapshotRepository struct {
	db   *sql.DB
	name string
	log  *utils.Logger
}

// NewSnapshotRepository создает репозиторий для снапшота с заданным именем
func NewSnapshotRepository(db *sql.DB, name string, log *utils.Logger) (*SnapshotRepository, error) {
	if name == "" {
		return nil, ErrEmptySnapshotName
	}
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	return &SnapshotRepository{
		db:   db,
		name: name,
		log:  log.WithComponent("snapshot_repository"),
	}, nil
}

// EnsureSchema создает таблицу снапшотов если ее нет
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			name       TEXT PRIMARY KEY,
			version    INTEGER NOT NULL,
			data       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return nil
}

// Save выполняет upsert документа снапшота
func (r *SnapshotRepository) Save(ctx context.Context, doc *models.SnapshotDocument) error {
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (name, version, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET version = $2, data = $3, updated_at = $4`

	_, err = r.db.ExecContext(ctx, query, r.name, doc.Version, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", r.name, err)
	}

	r.log.Debug("snapshot saved",
		utils.String("name", r.name),
		utils.Int("bytes", len(data)))
	return nil
}

// Load читает документ снапшота.
// Отсутствующая строка - не ошибка: возвращается (nil, nil) с предупреждением.
func (r *SnapshotRepository) Load(ctx context.Context) (*models.SnapshotDocument, error) {
	query := `SELECT data FROM snapshots WHERE name = $1`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warn("no snapshot row found, starting fresh",
				utils.String("name", r.name))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot %q: %w", r.name, err)
	}

	doc, err := state.Decode(data)
	if err != nil {
		return nil, err
	}

	r.log.Info("snapshot loaded",
		utils.String("name", r.name),
		utils.Int("version", doc.Version))
	return doc, nil
}

// Delete удаляет строку снапшота. Отсутствие строки не считается ошибкой.
func (r *SnapshotRepository) Delete(ctx context.Context) error {
	query := `DELETE FROM snapshots WHERE name = $1`

	if _, err := r.db.ExecContext(ctx, query, r.name); err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", r.name, err)
	}
	return nil
}
