package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/meur/primedex/internal/models"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS primes (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			element TEXT NOT NULL,
			rarity TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 0),
			image_name TEXT NOT NULL DEFAULT '',
			acquired_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_primes_player ON primes(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_primes_player_acquired ON primes(player_id, acquired_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// --- Players ---

// GetPlayers returns all players with their collection size
func (s *Store) GetPlayers(ctx context.Context) ([]models.PlayerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.created_at, COUNT(pr.id)
		FROM players p LEFT JOIN primes pr ON pr.player_id = p.id
		GROUP BY p.id ORDER BY p.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []models.PlayerSummary{}
	for rows.Next() {
		var p models.PlayerSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.PrimeCount); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayer returns a player by ID, or nil when there is none
func (s *Store) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM players WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer creates a new player, generating an ID when none is given
func (s *Store) CreatePlayer(ctx context.Context, req *models.PlayerCreate) (*models.Player, error) {
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, created_at) VALUES (?, ?, ?)
	`, id, req.Name, now)
	if err != nil {
		return nil, err
	}

	return &models.Player{ID: id, Name: req.Name, CreatedAt: now}, nil
}

// UpsertPlayer creates the player or renames an existing one
func (s *Store) UpsertPlayer(ctx context.Context, p *models.Player) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name, p.CreatedAt)
	return err
}

// --- Primes ---

const primeColumns = `id, player_id, name, element, rarity, level, image_name, acquired_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPrime reads one prime and re-normalizes its enumerations
func scanPrime(row rowScanner) (models.Prime, error) {
	var p models.Prime
	var element, rarity string
	err := row.Scan(&p.ID, &p.PlayerID, &p.Name, &element, &rarity, &p.Level, &p.ImageName, &p.AcquiredAt)
	if err != nil {
		return p, err
	}
	if p.Element, err = models.ParseElement(element); err != nil {
		return p, fmt.Errorf("prime %s: %w", p.ID, err)
	}
	if p.Rarity, err = models.ParseRarity(rarity); err != nil {
		return p, fmt.Errorf("prime %s: %w", p.ID, err)
	}
	return p, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryOwnedPrimes(ctx context.Context, q querier, playerID string) ([]models.Prime, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+primeColumns+`
		FROM primes WHERE player_id = ? ORDER BY acquired_at, rowid
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	primes := []models.Prime{}
	for rows.Next() {
		p, err := scanPrime(rows)
		if err != nil {
			return nil, err
		}
		primes = append(primes, p)
	}
	return primes, rows.Err()
}

// GetOwnedPrimes returns a player's primes in acquisition order
func (s *Store) GetOwnedPrimes(ctx context.Context, playerID string) ([]models.Prime, error) {
	return queryOwnedPrimes(ctx, s.db, playerID)
}

// GetPrime returns a prime by ID, or nil when there is none
func (s *Store) GetPrime(ctx context.Context, id string) (*models.Prime, error) {
	p, err := scanPrime(s.db.QueryRowContext(ctx, `
		SELECT `+primeColumns+` FROM primes WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPrimes returns how many primes a player owns
func (s *Store) CountPrimes(ctx context.Context, playerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM primes WHERE player_id = ?`, playerID).Scan(&n)
	return n, err
}

// SetSpeciesImage points every prime of the named species at an artwork
// asset, across all players. The name match ignores case.
func (s *Store) SetSpeciesImage(ctx context.Context, name, imageName string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE primes SET image_name = ? WHERE name = ? COLLATE NOCASE
	`, imageName, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// preparePrime fills generated fields and rejects invalid primes
func preparePrime(p *models.Prime) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.AcquiredAt.IsZero() {
		p.AcquiredAt = time.Now()
	}
	p.AcquiredAt = p.AcquiredAt.UTC()
	if p.Level < 0 {
		return fmt.Errorf("prime %s: negative level %d", p.ID, p.Level)
	}
	var err error
	if p.Element, err = models.ParseElement(string(p.Element)); err != nil {
		return fmt.Errorf("prime %s: %w", p.ID, err)
	}
	if p.Rarity, err = models.ParseRarity(string(p.Rarity)); err != nil {
		return fmt.Errorf("prime %s: %w", p.ID, err)
	}
	return nil
}

// CreatePrime creates a new prime
func (s *Store) CreatePrime(ctx context.Context, p *models.Prime) error {
	if err := preparePrime(p); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO primes (`+primeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.PlayerID, p.Name, p.Element, p.Rarity, p.Level, p.ImageName, p.AcquiredAt)
	return err
}

func insertPrimes(ctx context.Context, tx *sql.Tx, primes []models.Prime) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO primes (`+primeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range primes {
		p := &primes[i]
		if err := preparePrime(p); err != nil {
			return err
		}
		_, err := stmt.ExecContext(ctx, p.ID, p.PlayerID, p.Name, p.Element, p.Rarity,
			p.Level, p.ImageName, p.AcquiredAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// BulkCreatePrimes creates multiple primes in a transaction. Generated IDs
// and timestamps are written back into primes.
func (s *Store) BulkCreatePrimes(ctx context.Context, primes []models.Prime) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPrimes(ctx, tx, primes); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplacePrimes swaps a player's whole collection in one transaction
func (s *Store) ReplacePrimes(ctx context.Context, playerID string, primes []models.Prime) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM primes WHERE player_id = ?`, playerID); err != nil {
		return err
	}
	for i := range primes {
		primes[i].PlayerID = playerID
	}
	if err := insertPrimes(ctx, tx, primes); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePrimesByPlayer removes every prime a player owns
func (s *Store) DeletePrimesByPlayer(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM primes WHERE player_id = ?`, playerID)
	return err
}

// InitializeStarterPrimes gives a player one level-1 prime per starter.
// It only seeds an empty collection; a player who already owns primes gets
// the existing collection back unchanged.
func (s *Store) InitializeStarterPrimes(ctx context.Context, playerID string, starters []models.StarterPrime) ([]models.Prime, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := queryOwnedPrimes(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	now := time.Now().UTC()
	primes := make([]models.Prime, 0, len(starters))
	for _, st := range starters {
		primes = append(primes, models.Prime{
			ID:         uuid.New().String(),
			PlayerID:   playerID,
			Name:       st.Name,
			Element:    st.Element,
			Rarity:     st.Rarity,
			Level:      1,
			ImageName:  st.ImageName,
			AcquiredAt: now,
		})
	}
	if err := insertPrimes(ctx, tx, primes); err != nil {
		return nil, fmt.Errorf("failed to seed starters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return primes, nil
}
