package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (ds *Store) GetNickname(id int64) (Nickname, error) {
	return ds.scanNickname(ds.Connection.QueryRow(
		"SELECT id, nick, dta, dtb, authcode FROM enick WHERE id = ?", id))
}

func (ds *Store) GetNicknameByName(nick string) (Nickname, error) {
	return ds.scanNickname(ds.Connection.QueryRow(
		"SELECT id, nick, dta, dtb, authcode FROM enick WHERE nick = ?", nick))
}

func (ds *Store) scanNickname(row *sql.Row) (nickname Nickname, err error) {
	if err = row.Scan(&nickname.Id, &nickname.Nickname, &nickname.FirstSeen, &nickname.Dtb, &nickname.Authcode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Nickname{}, ErrNotFound
		}
		return Nickname{}, err
	}
	return nickname, nil
}

// AddNickname registers a listener identity, stamping the first sighting.
// The dtb column stays NULL; it exists only for compatibility with old rows.
func (ds *Store) AddNickname(data AddNicknameData) (Nickname, error) {
	var firstSeen = time.Now().UTC().Truncate(time.Second)

	result, err := ds.Connection.Exec(
		"INSERT INTO enick (nick, dta) VALUES (?, ?)", data.Nickname, firstSeen)
	if err != nil {
		if isUniqueViolation(err) {
			return Nickname{}, ErrNameTaken
		}
		return Nickname{}, fmt.Errorf("couldn't add nickname %q: %w", data.Nickname, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Nickname{}, err
	}

	return Nickname{Id: id, Nickname: data.Nickname, FirstSeen: firstSeen}, nil
}

// SetAuthcode stores or clears the short authentication code a listener uses to
// link their nickname; a nil code clears the column.
func (ds *Store) SetAuthcode(id int64, data SetAuthcodeData) error {
	result, err := ds.Connection.Exec("UPDATE enick SET authcode = ? WHERE id = ?", data.Authcode, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteNickname removes a nickname only while no fave references it.
func (ds *Store) DeleteNickname(id int64) error {
	result, err := ds.Connection.Exec("DELETE FROM enick WHERE id = ?", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	return requireAffected(result)
}

// AddNickRequest appends one claim to the audit trail; rows are never amended.
func (ds *Store) AddNickRequest(host string) (NickRequest, error) {
	var now = time.Now().UTC().Truncate(time.Second)

	result, err := ds.Connection.Exec(
		"INSERT INTO nickrequesttime (host, time) VALUES (?, ?)", host, now)
	if err != nil {
		return NickRequest{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NickRequest{}, err
	}
	return NickRequest{Id: id, Host: host, Time: now}, nil
}

// CountRecentNickRequests tallies a host's claims since the given instant, the
// figure rate limiters act on.
func (ds *Store) CountRecentNickRequests(host string, since time.Time) (count int, err error) {
	err = ds.Connection.QueryRow(
		"SELECT count(*) FROM nickrequesttime WHERE host = ? AND time >= ?", host, since.UTC()).Scan(&count)
	return count, err
}

func (ds *Store) GetLastFmByNick(nick string) (linkage LastFm, err error) {
	if err = ds.Connection.QueryRow(
		`SELECT id, nick, user FROM lastfm WHERE nick = ?`, nick).Scan(
		&linkage.Id, &linkage.Nick, &linkage.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LastFm{}, ErrNotFound
		}
		return LastFm{}, err
	}
	return linkage, nil
}

func (ds *Store) AddLastFm(data AddLastFmData) (LastFm, error) {
	result, err := ds.Connection.Exec(
		`INSERT INTO lastfm (nick, user) VALUES (?, ?)`, data.Nick, data.Username)
	if err != nil {
		return LastFm{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return LastFm{}, err
	}
	return LastFm{Id: id, Nick: data.Nick, Username: data.Username}, nil
}

func (ds *Store) DeleteLastFm(id int64) error {
	result, err := ds.Connection.Exec("DELETE FROM lastfm WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
