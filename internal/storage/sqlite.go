package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/inquest-engine/internal/storage/migrations"
	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

const migrationTable = "schema_migrations"

// SQLiteStore persists investigators and their vitals, inventory, clues
// and madness.
type SQLiteStore struct {
	db     *sql.DB
	limits state.Limits
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.CharacterStore = (*SQLiteStore)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string, limits state.Limits, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; ApplyChanges transactions must not interleave.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, limits: limits, logger: logger, now: time.Now}, nil
}

// applyMigrations executes each embedded .sql file at most once.
func applyMigrations(db *sql.DB, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := db.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upSection(string(raw))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec("INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)", file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upSection returns the SQL between the Up and Down markers.
func upSection(s string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	if i := strings.Index(s, up); i >= 0 {
		s = s[i+len(up):]
	}
	if i := strings.Index(s, down); i >= 0 {
		s = s[:i]
	}
	return s
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", "error", err)
		return err
	}
	return nil
}

// Investigators

func (s *SQLiteStore) SaveInvestigator(ctx context.Context, spec *actor.InvestigatorSpec) error {
	if spec == nil || spec.ID == "" {
		return fmt.Errorf("investigator id is required")
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal investigator: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO investigators (id, spec, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET spec = excluded.spec, updated_at = excluded.updated_at`,
		spec.ID, string(data), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save investigator %q: %w", spec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetInvestigator(ctx context.Context, id string) (*actor.InvestigatorSpec, error) {
	return getInvestigator(ctx, s.db, id)
}

func getInvestigator(ctx context.Context, q queryer, id string) (*actor.InvestigatorSpec, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT spec FROM investigators WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("investigator %q: %w", id, engineerr.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load investigator %q: %w", id, err)
	}
	var spec actor.InvestigatorSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal investigator %q: %w", id, err)
	}
	return &spec, nil
}

func (s *SQLiteStore) ListInvestigators(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM investigators ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investigators: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan investigator: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Vitals

// limitsFor lowers the HP ceiling to the investigator's own maximum.
func (s *SQLiteStore) limitsFor(ctx context.Context, q queryer, id string) state.Limits {
	l := s.limits
	spec, err := getInvestigator(ctx, q, id)
	if err == nil && spec.MaxHP > 0 {
		l.HP = spec.MaxHP
	}
	return l
}

const vitalColumns = `character_id, hp, sanity, hunger, pollution, hunger_zero_days,
    last_hunger_day, last_sanity_day, last_starvation_day, last_madness_day, last_rest_day`

func (s *SQLiteStore) vitalsFor(ctx context.Context, q queryer, id string) (state.VitalState, error) {
	var v state.VitalState
	err := q.QueryRowContext(ctx, `SELECT `+vitalColumns+` FROM vitals WHERE character_id = ?`, id).Scan(
		&v.CharacterID, &v.HP, &v.Sanity, &v.Hunger, &v.Pollution, &v.HungerZeroDays,
		&v.LastHungerDay, &v.LastSanityDay, &v.LastStarvationDay, &v.LastMadnessDay, &v.LastRestDay,
	)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return v, fmt.Errorf("failed to load vitals for %q: %w", id, err)
	}

	v = state.NewVitalState(id, s.limitsFor(ctx, q, id))
	if err := saveVitals(ctx, q, v); err != nil {
		return v, err
	}
	s.logger.Debug("Created vitals", "character_id", id, "hp", v.HP)
	return v, nil
}

func saveVitals(ctx context.Context, q queryer, v state.VitalState) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO vitals (`+vitalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(character_id) DO UPDATE SET
    hp = excluded.hp,
    sanity = excluded.sanity,
    hunger = excluded.hunger,
    pollution = excluded.pollution,
    hunger_zero_days = excluded.hunger_zero_days,
    last_hunger_day = excluded.last_hunger_day,
    last_sanity_day = excluded.last_sanity_day,
    last_starvation_day = excluded.last_starvation_day,
    last_madness_day = excluded.last_madness_day,
    last_rest_day = excluded.last_rest_day`,
		v.CharacterID, v.HP, v.Sanity, v.Hunger, v.Pollution, v.HungerZeroDays,
		v.LastHungerDay, v.LastSanityDay, v.LastStarvationDay, v.LastMadnessDay, v.LastRestDay,
	)
	if err != nil {
		return fmt.Errorf("failed to save vitals for %q: %w", v.CharacterID, err)
	}
	return nil
}

func (s *SQLiteStore) GetVitalState(ctx context.Context, characterID string) (state.VitalState, error) {
	return s.vitalsFor(ctx, s.db, characterID)
}

func (s *SQLiteStore) SaveVitalState(ctx context.Context, v state.VitalState) error {
	return saveVitals(ctx, s.db, v)
}

// ApplyChanges runs the whole changeset in one transaction. A failed
// required op rolls everything back.
func (s *SQLiteStore) ApplyChanges(ctx context.Context, characterID string, cs storage.Changeset) (storage.Applied, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Applied{}, fmt.Errorf("begin changeset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	before, err := s.vitalsFor(ctx, tx, characterID)
	if err != nil {
		return storage.Applied{}, err
	}
	limits := s.limitsFor(ctx, tx, characterID)
	after := before
	deltas := make([]int, len(cs.Ops))

	for i, op := range cs.Ops {
		var d int
		switch op.Kind {
		case storage.OpStat, storage.OpFeed, storage.OpUpdate:
			d, err = storage.ApplyVitalOp(&after, op, limits)
		case storage.OpItemAdd:
			d, err = addItem(ctx, tx, characterID, op.Name, op.Amount)
		case storage.OpItemRemove:
			d, err = removeItem(ctx, tx, characterID, op.Name, op.Amount, op.Required)
		case storage.OpClue:
			d, err = s.addClue(ctx, tx, characterID, op.ID, op.Name)
		default:
			err = fmt.Errorf("unknown op kind %q", op.Kind)
		}
		if err != nil {
			return storage.Applied{}, err
		}
		deltas[i] = d
	}

	if after != before {
		if err := saveVitals(ctx, tx, after); err != nil {
			return storage.Applied{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return storage.Applied{}, fmt.Errorf("commit changeset: %w", err)
	}
	return storage.Applied{Before: before, After: after, Deltas: deltas}, nil
}

// Inventory

func addItem(ctx context.Context, q queryer, characterID, name string, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO inventory (character_id, name, count) VALUES (?, ?, ?)
ON CONFLICT(character_id, name) DO UPDATE SET count = count + excluded.count`,
		characterID, name, count)
	if err != nil {
		return 0, fmt.Errorf("failed to add item %q: %w", name, err)
	}
	return count, nil
}

func removeItem(ctx context.Context, q queryer, characterID, name string, count int, required bool) (int, error) {
	var have int
	err := q.QueryRowContext(ctx, `SELECT count FROM inventory WHERE character_id = ? AND name = ?`, characterID, name).Scan(&have)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to read item %q: %w", name, err)
	}
	if required && have < count {
		return 0, fmt.Errorf("item %q: %w", name, engineerr.ErrResourceInsufficient)
	}
	take := min(have, count)
	if take <= 0 {
		return 0, nil
	}
	if have-take <= 0 {
		_, err = q.ExecContext(ctx, `DELETE FROM inventory WHERE character_id = ? AND name = ?`, characterID, name)
	} else {
		_, err = q.ExecContext(ctx, `UPDATE inventory SET count = ? WHERE character_id = ? AND name = ?`, have-take, characterID, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to remove item %q: %w", name, err)
	}
	return take, nil
}

func (s *SQLiteStore) AddItem(ctx context.Context, characterID, name string, count int) error {
	var cs storage.Changeset
	_, err := s.ApplyChanges(ctx, characterID, *cs.AddItem(name, count))
	return err
}

func (s *SQLiteStore) RemoveItem(ctx context.Context, characterID, name string, count int) error {
	var cs storage.Changeset
	_, err := s.ApplyChanges(ctx, characterID, *cs.RemoveItem(name, count))
	return err
}

func (s *SQLiteStore) ListItems(ctx context.Context, characterID string) ([]storage.ItemCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, count FROM inventory WHERE character_id = ? ORDER BY name`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	out := []storage.ItemCount{}
	for rows.Next() {
		var ic storage.ItemCount
		if err := rows.Scan(&ic.Name, &ic.Count); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

// Clues

func (s *SQLiteStore) addClue(ctx context.Context, q queryer, characterID, id, name string) (int, error) {
	res, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO clues (character_id, clue_id, name, acquired_at) VALUES (?, ?, ?, ?)`,
		characterID, id, name, s.now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to add clue %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to add clue %q: %w", id, err)
	}
	return int(n), nil
}

func (s *SQLiteStore) ListClues(ctx context.Context, characterID string) ([]content.Clue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT clue_id, name FROM clues WHERE character_id = ? ORDER BY acquired_at, rowid`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clues: %w", err)
	}
	defer rows.Close()

	var out []content.Clue
	for rows.Next() {
		var c content.Clue
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan clue: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Madness

func (s *SQLiteStore) ListMadness(ctx context.Context, characterID string) ([]storage.OwnedMadness, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT madness_id, name, acquired_at FROM madness WHERE character_id = ? ORDER BY acquired_at, rowid`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list madness: %w", err)
	}
	defer rows.Close()

	var out []storage.OwnedMadness
	for rows.Next() {
		var m storage.OwnedMadness
		var at int64
		if err := rows.Scan(&m.MadnessID, &m.Name, &at); err != nil {
			return nil, fmt.Errorf("failed to scan madness: %w", err)
		}
		m.AcquiredAt = time.UnixMilli(at).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMadness records a madness. Acquiring one already held is a no-op.
func (s *SQLiteStore) AddMadness(ctx context.Context, characterID string, rec content.MadnessRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO madness (character_id, madness_id, name, acquired_at) VALUES (?, ?, ?, ?)`,
		characterID, rec.ID, rec.Name, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to add madness %q: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveMadness(ctx context.Context, characterID, madnessID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM madness WHERE character_id = ? AND madness_id = ?`, characterID, madnessID)
	if err != nil {
		return fmt.Errorf("failed to remove madness %q: %w", madnessID, err)
	}
	return nil
}
