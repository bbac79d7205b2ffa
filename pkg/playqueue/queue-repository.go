package playqueue

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

type QueueRepository interface {
	Enqueue(data EnqueueData) (Entry, error)
	EntriesBefore(cutoff time.Time) ([]Entry, error)
	Remove(id int64) error
}

type Store struct {
	Connection *sql.DB
}

var (
	ErrNotFound = errors.New("queue entry not found")
	// ErrUnknownSong, ErrUnknownTrack and ErrUnknownDJ name which reference failed
	// to resolve before the insert was attempted.
	ErrUnknownSong  = errors.New("song not catalogued")
	ErrUnknownTrack = errors.New("track not catalogued")
	ErrUnknownDJ    = errors.New("dj not registered")
	// ErrUnknownReference covers a reference row vanishing between the advisory
	// checks and the insert; the foreign keys are the load-bearing guard.
	ErrUnknownReference = errors.New("queue entry references a missing row")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// Enqueue inserts a request stamped with the current instant. No row is created
// when any reference fails to resolve.
func (qs *Store) Enqueue(data EnqueueData) (Entry, error) {
	if !qs.existsIn("esong", data.SongId) {
		return Entry{}, ErrUnknownSong
	}
	if data.TrackId != nil && !qs.existsIn("tracks", *data.TrackId) {
		return Entry{}, ErrUnknownTrack
	}
	if !qs.existsIn("djs", data.DJId) {
		return Entry{}, ErrUnknownDJ
	}

	var now = time.Now().UTC().Truncate(time.Second)

	result, err := qs.Connection.Exec(`
		INSERT INTO queue (type, time, song, track, ip, dj)
		VALUES (?, ?, ?, ?, ?, ?)`,
		data.Type, now, data.SongId, data.TrackId, data.Ip, data.DJId)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Entry{}, ErrUnknownReference
		}
		return Entry{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Id:      id,
		Type:    data.Type,
		Time:    now,
		SongId:  data.SongId,
		TrackId: data.TrackId,
		Ip:      data.Ip,
		DJId:    data.DJId,
	}, nil
}

// EntriesBefore returns the entries due before the cutoff, ascending by time.
// It never deletes: consumption is the external scheduler's move, through Remove.
func (qs *Store) EntriesBefore(cutoff time.Time) ([]Entry, error) {
	// initialise an empty slice to avoid null serialisation
	var entries = make([]Entry, 0)

	rows, err := qs.Connection.Query(`
		SELECT id, type, time, song, track, ip, dj FROM queue
		WHERE time < ?
		ORDER BY time, id`,
		cutoff.UTC())
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var entry Entry
		if err = rows.Scan(
			&entry.Id, &entry.Type, &entry.Time, &entry.SongId,
			&entry.TrackId, &entry.Ip, &entry.DJId,
		); err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return entries, err
	}
	return entries, rows.Close()
}

// Remove deletes one consumed entry by id.
func (qs *Store) Remove(id int64) error {
	result, err := qs.Connection.Exec("DELETE FROM queue WHERE id = ?", id)
	if err != nil {
		return err
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// existsIn checks for a row by id in one of the referenced tables; the table name
// is always a compile-time constant, never caller input.
func (qs *Store) existsIn(table string, id int64) (exists bool) {
	var err = qs.Connection.QueryRow("SELECT TRUE FROM "+table+" WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

func isForeignKeyViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
