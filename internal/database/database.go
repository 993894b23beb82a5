package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"bezero/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the SQLite connection and the static travel catalog. The catalog
// (cities, airships, guest houses, rooms, cards, questions) is seeded from
// YAML at startup and served from memory; everything transactional lives in
// SQL.
type DB struct {
	db  *sql.DB
	log zerolog.Logger

	mu           sync.RWMutex
	cities       map[int64]models.City
	airships     map[int64]models.Airship
	guestHouses  map[int64]models.GuestHouse
	rooms        map[int64]models.Room
	roomsByHouse map[int64][]models.Room
	cards        []models.ConversationCard
	questions    []models.Question
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// _txlock=immediate: транзакции сразу берут write-lock, иначе два
	// deferred-писателя ловят SQLITE_BUSY друг на друге.
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	var dbLogger zerolog.Logger
	if logger != nil {
		dbLogger = logger.With().Str("component", "database").Logger()
	}
	dbLogger.Info().Str("path", path).Msg("database initialized")

	return &DB{
		db:           conn,
		log:          dbLogger,
		cities:       make(map[int64]models.City),
		airships:     make(map[int64]models.Airship),
		guestHouses:  make(map[int64]models.GuestHouse),
		rooms:        make(map[int64]models.Room),
		roomsByHouse: make(map[int64][]models.Room),
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            nickname TEXT NOT NULL,
            bio TEXT NOT NULL DEFAULT '',
            home_city TEXT NOT NULL DEFAULT '',
            is_manager BOOLEAN NOT NULL DEFAULT 0,
            is_blacklisted BOOLEAN NOT NULL DEFAULT 0,
            last_activity DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS tickets (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            airship_id INTEGER NOT NULL,
            from_city_id INTEGER NOT NULL,
            to_city_id INTEGER NOT NULL,
            price INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'purchased',
            departure_at DATETIME NOT NULL,
            arrival_at DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS room_stays (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            room_id INTEGER NOT NULL,
            guest_house_id INTEGER NOT NULL,
            check_in DATETIME NOT NULL,
            check_out DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'reserved',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            id TEXT PRIMARY KEY,
            guest_house_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL,
            nickname TEXT NOT NULL,
            kind TEXT NOT NULL DEFAULT 'text',
            card_id INTEGER NOT NULL DEFAULT 0,
            body TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            deleted_at DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS dm_rooms (
            id TEXT PRIMARY KEY,
            requester_id INTEGER NOT NULL,
            recipient_id INTEGER NOT NULL,
            guest_house_id INTEGER NOT NULL,
            pair_key TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            requested_at DATETIME NOT NULL,
            responded_at DATETIME,
            activated_at DATETIME,
            ended_at DATETIME,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS dm_messages (
            id TEXT PRIMARY KEY,
            room_id TEXT NOT NULL,
            sender_id INTEGER NOT NULL,
            body TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            deleted_at DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS point_transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            type TEXT NOT NULL,
            amount INTEGER NOT NULL CHECK (amount > 0),
            balance_before INTEGER NOT NULL,
            balance_after INTEGER NOT NULL,
            reference_type TEXT NOT NULL DEFAULT '',
            reference_id TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS diary_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            stay_id INTEGER NOT NULL DEFAULT 0,
            title TEXT NOT NULL,
            body TEXT NOT NULL,
            mood TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            deleted_at DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS answers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL,
            body TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            ref_id TEXT NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_departure ON tickets(airship_id, departure_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_room ON room_stays(room_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_user ON room_stays(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_house ON room_stays(guest_house_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_house_time ON chat_messages(guest_house_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dm_messages_room ON dm_messages(room_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dm_rooms_requester ON dm_rooms(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dm_rooms_recipient ON dm_rooms(recipient_id)`,
		// One open (non-terminal) room per pair of users.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_dm_rooms_open_pair ON dm_rooms(pair_key)
            WHERE status IN ('pending', 'accepted', 'active')`,
		`CREATE INDEX IF NOT EXISTS idx_points_user ON point_transactions(user_id, id)`,
		// Idempotent rewards: a reference pair may be rewarded at most once.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_points_reference ON point_transactions(reference_type, reference_id)
            WHERE reference_type != ''`,
		`CREATE INDEX IF NOT EXISTS idx_diary_user ON diary_entries(user_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_user_question ON answers(user_id, question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// SetCatalog replaces the in-memory travel catalog.
func (db *DB) SetCatalog(cat models.Catalog) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.cities = make(map[int64]models.City, len(cat.Cities))
	for _, c := range cat.Cities {
		db.cities[c.ID] = c
	}
	db.airships = make(map[int64]models.Airship, len(cat.Airships))
	for _, a := range cat.Airships {
		db.airships[a.ID] = a
	}
	db.guestHouses = make(map[int64]models.GuestHouse, len(cat.GuestHouses))
	for _, g := range cat.GuestHouses {
		db.guestHouses[g.ID] = g
	}
	db.rooms = make(map[int64]models.Room, len(cat.Rooms))
	db.roomsByHouse = make(map[int64][]models.Room)
	for _, r := range cat.Rooms {
		db.rooms[r.ID] = r
		db.roomsByHouse[r.GuestHouseID] = append(db.roomsByHouse[r.GuestHouseID], r)
	}
	db.cards = append([]models.ConversationCard(nil), cat.Cards...)
	db.questions = append([]models.Question(nil), cat.Questions...)
}

func (db *DB) GetCity(id int64) (models.City, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.cities[id]
	return c, ok
}

func (db *DB) GetCities() []models.City {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.City, 0, len(db.cities))
	for _, c := range db.cities {
		out = append(out, c)
	}
	sortByOrder(out, func(c models.City) (int64, int64) { return c.SortOrder, c.ID })
	return out
}

func (db *DB) GetAirship(id int64) (models.Airship, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.airships[id]
	return a, ok
}

func (db *DB) GetGuestHouse(id int64) (models.GuestHouse, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	g, ok := db.guestHouses[id]
	return g, ok
}

func (db *DB) GetGuestHouses() []models.GuestHouse {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.GuestHouse, 0, len(db.guestHouses))
	for _, g := range db.guestHouses {
		if g.IsActive {
			out = append(out, g)
		}
	}
	sortByOrder(out, func(g models.GuestHouse) (int64, int64) { return g.SortOrder, g.ID })
	return out
}

func (db *DB) GetRoom(id int64) (models.Room, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	r, ok := db.rooms[id]
	return r, ok
}

func (db *DB) GetRoomsForGuestHouse(guestHouseID int64) []models.Room {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.Room(nil), db.roomsByHouse[guestHouseID]...)
}

// GetCards returns active cards visible in a city. Cards with CityID 0 are
// global; cityID 0 returns everything.
func (db *DB) GetCards(cityID int64) []models.ConversationCard {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []models.ConversationCard
	for _, c := range db.cards {
		if !c.IsActive {
			continue
		}
		if c.CityID != 0 && cityID != 0 && c.CityID != cityID {
			continue
		}
		out = append(out, c)
	}
	sortByOrder(out, func(c models.ConversationCard) (int64, int64) { return c.SortOrder, c.ID })
	return out
}

func (db *DB) GetCard(id int64) (models.ConversationCard, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, c := range db.cards {
		if c.ID == id {
			return c, true
		}
	}
	return models.ConversationCard{}, false
}

func (db *DB) GetQuestions(cityID int64) []models.Question {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []models.Question
	for _, q := range db.questions {
		if !q.IsActive {
			continue
		}
		if q.CityID != 0 && cityID != 0 && q.CityID != cityID {
			continue
		}
		out = append(out, q)
	}
	sortByOrder(out, func(q models.Question) (int64, int64) { return q.SortOrder, q.ID })
	return out
}

func (db *DB) GetQuestion(id int64) (models.Question, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, q := range db.questions {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

func sortByOrder[T any](items []T, key func(T) (int64, int64)) {
	sort.Slice(items, func(i, j int) bool {
		oi, idi := key(items[i])
		oj, idj := key(items[j])
		if oi == oj {
			return idi < idj
		}
		return oi < oj
	})
}
