package ledger

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

type LedgerRepository interface {
	RecordPlay(data RecordPlayData) (Play, error)
	RecordFave(data RecordFaveData) (Fave, error)
	PlaysFor(songId int64) ([]Play, error)
	FavesFor(songId int64) ([]Fave, error)
}

type Store struct {
	Connection *sql.DB
}

var (
	// ErrUnknownSong rejects history for songs missing from the catalog.
	ErrUnknownSong = errors.New("song not catalogued")
	// ErrUnknownNick rejects faves from nicknames that were never registered.
	ErrUnknownNick = errors.New("nickname not registered")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// RecordPlay appends one playback event; a zero Time stamps the current instant.
// The insert either succeeds or fails on the song reference; play history never
// mutates catalog rows.
func (ls *Store) RecordPlay(data RecordPlayData) (Play, error) {
	var at = data.Time
	if at.IsZero() {
		at = time.Now().UTC().Truncate(time.Second)
	}

	result, err := ls.Connection.Exec(
		"INSERT INTO eplay (isong, dt) VALUES (?, ?)", data.SongId, at.UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return Play{}, ErrUnknownSong
		}
		return Play{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Play{}, err
	}
	return Play{Id: id, SongId: data.SongId, Time: at}, nil
}

// RecordFave appends a favourite without deduplication; repeated identical calls
// produce as many rows. The existence check merely names the broken reference,
// the foreign keys remain the real guard.
func (ls *Store) RecordFave(data RecordFaveData) (Fave, error) {
	if !ls.existsNick(data.NickId) {
		return Fave{}, ErrUnknownNick
	}

	result, err := ls.Connection.Exec(
		"INSERT INTO efave (inick, isong) VALUES (?, ?)", data.NickId, data.SongId)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Fave{}, ErrUnknownSong
		}
		return Fave{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Fave{}, err
	}
	return Fave{Id: id, NickId: data.NickId, SongId: data.SongId}, nil
}

// PlaysFor returns the song's playback history in chronological order; reissuing
// the query restarts the sequence from the beginning.
func (ls *Store) PlaysFor(songId int64) ([]Play, error) {
	// initialise an empty slice to avoid null serialisation
	var plays = make([]Play, 0)

	rows, err := ls.Connection.Query(
		"SELECT id, isong, dt FROM eplay WHERE isong = ? ORDER BY dt, id", songId)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var play Play
		if err = rows.Scan(&play.Id, &play.SongId, &play.Time); err != nil {
			return plays, err
		}
		plays = append(plays, play)
	}

	if err = rows.Err(); err != nil {
		return plays, err
	}
	return plays, rows.Close()
}

// FavesFor returns the song's favourites in insertion order, duplicates included.
func (ls *Store) FavesFor(songId int64) ([]Fave, error) {
	var faves = make([]Fave, 0)

	rows, err := ls.Connection.Query(
		"SELECT id, inick, isong FROM efave WHERE isong = ? ORDER BY id", songId)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var fave Fave
		if err = rows.Scan(&fave.Id, &fave.NickId, &fave.SongId); err != nil {
			return faves, err
		}
		faves = append(faves, fave)
	}

	if err = rows.Err(); err != nil {
		return faves, err
	}
	return faves, rows.Close()
}

func (ls *Store) existsNick(id int64) (exists bool) {
	var err = ls.Connection.QueryRow("SELECT TRUE FROM enick WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

func isForeignKeyViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
