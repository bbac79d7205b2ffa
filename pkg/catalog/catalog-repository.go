package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ferrata/stationdb/pkg/hashing"
	"github.com/ferrata/stationdb/pkg/ntime"
	"github.com/mattn/go-sqlite3"
)

type CatalogRepository interface {
	ResolveSong(metadata string) (Song, error)
	GetSong(id int64) (Song, error)
	AddSong(data AddSongData) (Song, error)
	UpdateSong(id int64, data UpdateSongData) error
	DeleteSong(id int64) error
	ExistsSong(id int64) bool

	ResolveTrack(metadata string) (Track, error)
	GetTrack(id int64) (Track, error)
	AddTrack(data AddTrackData) (Track, error)
	UpdateUsable(id int64, usable bool) error
	MarkNeedsReupload(id int64, needed bool) error
	BumpRequestCount(id int64) error
	GetUnusableTracks() ([]Track, error)
	DeleteTrack(id int64) error
	ExistsTrack(id int64) bool
}

type Store struct {
	Connection *sql.DB
}

var (
	// ErrNotFound signals that no row matches the given id or digest.
	ErrNotFound = errors.New("no catalog entry matches")
	// ErrDigestConflict signals that a row with the derived digest already exists.
	// Callers wanting upsert semantics resolve first and create only on ErrNotFound;
	// the unique constraint behind this error remains the authoritative guard.
	ErrDigestConflict = errors.New("digest already catalogued")
	// ErrReferenced rejects deletes that would orphan plays, faves or queue entries.
	ErrReferenced = errors.New("catalog entry is referenced")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

const songColumns = "id, hash, len, meta, hash_link"

// ResolveSong finds the canonical song row for a metadata string. Strings differing
// only in case resolve to the same row.
func (cs *Store) ResolveSong(metadata string) (Song, error) {
	return cs.scanSong(cs.Connection.QueryRow(
		"SELECT "+songColumns+" FROM esong WHERE hash = ?", hashing.Digest(metadata)))
}

func (cs *Store) GetSong(id int64) (Song, error) {
	return cs.scanSong(cs.Connection.QueryRow(
		"SELECT "+songColumns+" FROM esong WHERE id = ?", id))
}

func (cs *Store) scanSong(row *sql.Row) (song Song, err error) {
	if err = row.Scan(&song.Id, &song.Digest, &song.Length, &song.Meta, &song.HashLink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrNotFound
		}
		return Song{}, err
	}
	return song, nil
}

// AddSong inserts a new song row, deriving the digest from the given metadata.
// Two concurrent resolve-then-create sequences for the same metadata cannot both
// succeed: the losing insert surfaces ErrDigestConflict off the unique constraint.
func (cs *Store) AddSong(data AddSongData) (Song, error) {
	var digest = hashing.Digest(data.Meta)

	result, err := cs.Connection.Exec(
		"INSERT INTO esong (hash, len, meta, hash_link) VALUES (?, ?, ?, ?)",
		digest, data.Length, data.Meta, data.HashLink)
	if err != nil {
		if isUniqueViolation(err) {
			return Song{}, ErrDigestConflict
		}
		return Song{}, fmt.Errorf("couldn't add song %q: %w", data.Meta, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Song{}, err
	}

	return Song{
		Id:       id,
		Digest:   digest,
		Length:   data.Length,
		Meta:     data.Meta,
		HashLink: data.HashLink,
	}, nil
}

// UpdateSong amends meta and hash_link in place. The digest is left untouched;
// keeping it consistent with an amended meta is the caller's explicit duty.
func (cs *Store) UpdateSong(id int64, data UpdateSongData) error {
	result, err := cs.Connection.Exec(
		"UPDATE esong SET meta = ?, hash_link = ? WHERE id = ?", data.Meta, data.HashLink, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteSong removes a song only when nothing references it; the foreign keys on
// eplay, efave and queue reject the delete otherwise.
func (cs *Store) DeleteSong(id int64) error {
	result, err := cs.Connection.Exec("DELETE FROM esong WHERE id = ?", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	return requireAffected(result)
}

func (cs *Store) ExistsSong(id int64) (exists bool) {
	// will return false in the absence of positive results
	var err = cs.Connection.QueryRow("SELECT TRUE FROM esong WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

const trackColumns = `id, artist, track, album, path, tags, lastplayed, lastrequested,
	usable, accepter, lasteditor, hash, priority, requestcount, need_reupload`

// ResolveTrack mirrors ResolveSong against the track digest namespace; a metadata
// string may resolve to a song yet not to a track, or the other way around.
func (cs *Store) ResolveTrack(metadata string) (Track, error) {
	return cs.scanTrack(cs.Connection.QueryRow(
		"SELECT "+trackColumns+" FROM tracks WHERE hash = ?", hashing.Digest(metadata)))
}

func (cs *Store) GetTrack(id int64) (Track, error) {
	return cs.scanTrack(cs.Connection.QueryRow(
		"SELECT "+trackColumns+" FROM tracks WHERE id = ?", id))
}

func (cs *Store) scanTrack(row *sql.Row) (track Track, err error) {
	if err = row.Scan(
		&track.Id,
		&track.Artist,
		&track.Title,
		&track.Album,
		&track.Filename,
		&track.SearchTags,
		&track.LastPlayed,
		&track.LastRequested,
		&track.Usable,
		&track.Acceptor,
		&track.LastEditor,
		&track.Digest,
		&track.Priority,
		&track.RequestCount,
		&track.NeedsReupload,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Track{}, ErrNotFound
		}
		return Track{}, err
	}
	return track, nil
}

// AddTrack inserts a new track with a zeroed request count and no reupload flag.
func (cs *Store) AddTrack(data AddTrackData) (Track, error) {
	var digest = hashing.Digest(data.metadata())

	result, err := cs.Connection.Exec(`
		INSERT INTO tracks (artist, track, album, path, tags, usable, accepter, lasteditor, hash, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Artist, data.Title, data.Album, data.Filename, data.SearchTags,
		data.Usable, data.Acceptor, data.LastEditor, digest, data.Priority)
	if err != nil {
		if isUniqueViolation(err) {
			return Track{}, ErrDigestConflict
		}
		return Track{}, fmt.Errorf("couldn't add track %q: %w", data.metadata(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Track{}, err
	}

	return Track{
		Id:         id,
		Artist:     data.Artist,
		Title:      data.Title,
		Album:      data.Album,
		Filename:   data.Filename,
		SearchTags: data.SearchTags,
		Usable:     data.Usable,
		Acceptor:   data.Acceptor,
		LastEditor: data.LastEditor,
		Digest:     digest,
		Priority:   data.Priority,
	}, nil
}

func (cs *Store) UpdateUsable(id int64, usable bool) error {
	result, err := cs.Connection.Exec("UPDATE tracks SET usable = ? WHERE id = ?", usable, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// MarkNeedsReupload flags corrupt or missing files; external pickers must obey it.
func (cs *Store) MarkNeedsReupload(id int64, needed bool) error {
	result, err := cs.Connection.Exec("UPDATE tracks SET need_reupload = ? WHERE id = ?", needed, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// BumpRequestCount increments the request tally and stamps the request instant,
// leaving every other column alone.
func (cs *Store) BumpRequestCount(id int64) error {
	result, err := cs.Connection.Exec(
		"UPDATE tracks SET requestcount = requestcount + 1, lastrequested = ? WHERE id = ?",
		ntime.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// GetUnusableTracks lists tracks excluded from selection, for review by editors.
func (cs *Store) GetUnusableTracks() ([]Track, error) {
	// initialise an empty slice to avoid null serialisation
	var tracks = make([]Track, 0)

	rows, err := cs.Connection.Query(
		"SELECT " + trackColumns + " FROM tracks WHERE usable = 0 ORDER BY id")
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var track Track
		if err = rows.Scan(
			&track.Id,
			&track.Artist,
			&track.Title,
			&track.Album,
			&track.Filename,
			&track.SearchTags,
			&track.LastPlayed,
			&track.LastRequested,
			&track.Usable,
			&track.Acceptor,
			&track.LastEditor,
			&track.Digest,
			&track.Priority,
			&track.RequestCount,
			&track.NeedsReupload,
		); err != nil {
			return tracks, err
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return tracks, err
	}
	return tracks, rows.Close()
}

func (cs *Store) DeleteTrack(id int64) error {
	result, err := cs.Connection.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	return requireAffected(result)
}

func (cs *Store) ExistsTrack(id int64) (exists bool) {
	var err = cs.Connection.QueryRow("SELECT TRUE FROM tracks WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
