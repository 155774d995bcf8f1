package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/acavaille/stanza/internal/db"
	"github.com/acavaille/stanza/internal/song"
)

const (
	appName    = "stanza"
	dbFileName = "stanza.db"
)

// Manager is the sqlite-backed Store.
type Manager struct {
	db *sql.DB
}

// Open opens the store at the default data path.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the store at an explicit path. Used by tests and by the
// data_dir config override.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// DB exposes the raw handle.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// --- songs ---

// GetSong returns one song record, ErrNotFound if absent.
func (m *Manager) GetSong(id string) (*song.Song, error) {
	row := m.db.QueryRow(`
		SELECT id, name, artist, album, duration_ms, cover, size, origin,
		       source_kind, source_path, source_url, source_data
		FROM songs WHERE id = ?
	`, id)
	s, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AllSongs returns every song in stable insertion order.
func (m *Manager) AllSongs() ([]song.Song, error) {
	rows, err := m.db.Query(`
		SELECT id, name, artist, album, duration_ms, cover, size, origin,
		       source_kind, source_path, source_url, source_data
		FROM songs ORDER BY added_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []song.Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *s)
	}
	return songs, rows.Err()
}

// PutSong inserts or updates a song record. The live file handle is
// not durable; only the path is stored, to be rebound next session.
func (m *Manager) PutSong(s song.Song) error {
	var path, url sql.NullString
	if s.Source.Path != "" {
		path = sql.NullString{String: s.Source.Path, Valid: true}
	}
	if s.Source.URL != "" {
		url = sql.NullString{String: s.Source.URL, Valid: true}
	}
	_, err := m.db.Exec(`
		INSERT INTO songs (id, name, artist, album, duration_ms, cover, size, origin,
		                   source_kind, source_path, source_url, source_data, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			artist = excluded.artist,
			album = excluded.album,
			duration_ms = excluded.duration_ms,
			cover = excluded.cover,
			size = excluded.size,
			origin = excluded.origin,
			source_kind = excluded.source_kind,
			source_path = excluded.source_path,
			source_url = excluded.source_url,
			source_data = excluded.source_data
	`, s.ID, s.Name, s.Artist, s.Album, s.Duration.Milliseconds(), s.Cover, s.Size,
		int(s.Origin), int(s.Source.Kind), path, url, s.Source.Data,
		time.Now().UnixMilli())
	return err
}

// DeleteSong removes a song record.
func (m *Manager) DeleteSong(id string) error {
	_, err := m.db.Exec(`DELETE FROM songs WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*song.Song, error) {
	var s song.Song
	var durationMS, origin, kind int64
	var path, url sql.NullString

	err := row.Scan(&s.ID, &s.Name, &s.Artist, &s.Album, &durationMS, &s.Cover,
		&s.Size, &origin, &kind, &path, &url, &s.Source.Data)
	if err != nil {
		return nil, err
	}

	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.Origin = song.Origin(origin)
	s.Source.Kind = song.SourceKind(kind)
	s.Source.Path = dbutil.NullStringValue(path)
	s.Source.URL = dbutil.NullStringValue(url)
	return &s, nil
}

// --- playlists ---

// GetPlaylist returns one playlist with its ordered membership.
func (m *Manager) GetPlaylist(id string) (*Playlist, error) {
	var p Playlist
	row := m.db.QueryRow(`SELECT id, name, image FROM playlists WHERE id = ?`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ids, err := m.playlistIDs(id)
	if err != nil {
		return nil, err
	}
	p.IDs = ids
	return &p, nil
}

// AllPlaylists returns every playlist ordered by creation time.
func (m *Manager) AllPlaylists() ([]Playlist, error) {
	rows, err := m.db.Query(`SELECT id, name, image FROM playlists ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Image); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		ids, err := m.playlistIDs(playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].IDs = ids
	}
	return playlists, nil
}

// PutPlaylist writes the record and its full membership in one
// transaction, so readers never observe a partial id list.
func (m *Manager) PutPlaylist(p Playlist) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlists (id, name, image, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				image = excluded.image
		`, p.ID, p.Name, p.Image, time.Now().UnixMilli())
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, p.ID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO playlist_songs (playlist_id, position, song_id) VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, id := range p.IDs {
			if _, err := stmt.Exec(p.ID, i, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePlaylist removes a playlist and its membership rows.
func (m *Manager) DeletePlaylist(id string) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM playlists WHERE id = ?`, id)
		return err
	})
}

func (m *Manager) playlistIDs(playlistID string) ([]string, error) {
	rows, err := m.db.Query(`
		SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- prefs ---

// GetPref unmarshals the JSON value under key into dest. Returns
// false when the key is absent.
func (m *Manager) GetPref(key string, dest any) (bool, error) {
	var raw string
	err := m.db.QueryRow(`SELECT v FROM prefs WHERE k = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(raw), dest)
}

// PutPref stores value as JSON under key.
func (m *Manager) PutPref(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(`
		INSERT INTO prefs (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v
	`, key, string(raw))
	return err
}

// --- queue snapshot ---

// GetQueue returns the saved queue state, or an empty idle state when
// none was saved yet.
func (m *Manager) GetQueue() (*QueueState, error) {
	var state QueueState
	row := m.db.QueryRow(`SELECT current_index, repeat_mode, shuffle FROM queue_state WHERE id = 1`)
	err := row.Scan(&state.CurrentIndex, &state.RepeatMode, &state.Shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := m.db.Query(`SELECT song_id FROM queue_songs ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		state.IDs = append(state.IDs, id)
	}
	return &state, rows.Err()
}

// SaveQueue replaces the saved queue snapshot.
func (m *Manager) SaveQueue(state QueueState) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_songs`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO queue_state (id, current_index, repeat_mode, shuffle)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle
		`, state.CurrentIndex, state.RepeatMode, state.Shuffle)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO queue_songs (position, song_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, id := range state.IDs {
			if _, err := stmt.Exec(i, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
