package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

type DirectoryRepository interface {
	GetDJs() ([]DJ, error)
	GetDJ(id int64) (DJ, error)
	GetDJByName(name string) (DJ, error)
	AddDJ(data AddDJData) (DJ, error)
	UpdateDJ(id int64, data UpdateDJData) error
	DeleteDJ(id int64) error
	ExistsDJ(id int64) bool

	GetUser(id int64) (User, error)
	GetUserByName(name string) (User, error)
	AddUser(data AddUserData) (User, error)
	UpdateUserPrivileges(id int64, privileges int) error
	ExistsUserName(name string) bool

	GetNickname(id int64) (Nickname, error)
	GetNicknameByName(nick string) (Nickname, error)
	AddNickname(data AddNicknameData) (Nickname, error)
	SetAuthcode(id int64, data SetAuthcodeData) error
	DeleteNickname(id int64) error

	AddNickRequest(host string) (NickRequest, error)
	CountRecentNickRequests(host string, since time.Time) (int, error)

	GetLastFmByNick(nick string) (LastFm, error)
	AddLastFm(data AddLastFmData) (LastFm, error)
	DeleteLastFm(id int64) error

	GetRelays() ([]Relay, error)
	GetRelay(id int64) (Relay, error)
	AddRelay(data AddRelayData) (Relay, error)
	SetRelayListeners(id int64, listeners int) error
	SetRelayActive(id int64, active bool) error
	SetRelayDisabled(id int64, disabled bool) error
	DeleteRelay(id int64) error
}

type Store struct {
	Connection *sql.DB
}

var (
	ErrNotFound = errors.New("directory entry not found")
	// ErrNameTaken signals a natural key collision on djs.djname or enick.nick.
	ErrNameTaken = errors.New("name is already taken")
	// ErrReferenced rejects deletes that would orphan rows referencing the entry.
	ErrReferenced = errors.New("directory entry is referenced")
	// ErrUnknownDJ rejects users pointing at a dj that was never registered.
	ErrUnknownDJ = errors.New("dj not registered")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

func (ds *Store) GetDJs() ([]DJ, error) {
	// initialise an empty slice to avoid null serialisation
	var djs = make([]DJ, 0)

	rows, err := ds.Connection.Query(
		"SELECT id, djname, djtext, djimage, visible, priority, css FROM djs ORDER BY priority DESC, id")
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var dj DJ
		if err = rows.Scan(&dj.Id, &dj.Name, &dj.Description, &dj.Image, &dj.Visible, &dj.Priority, &dj.Css); err != nil {
			return djs, err
		}
		djs = append(djs, dj)
	}

	if err = rows.Err(); err != nil {
		return djs, err
	}
	return djs, rows.Close()
}

func (ds *Store) GetDJ(id int64) (DJ, error) {
	return ds.scanDJ(ds.Connection.QueryRow(
		"SELECT id, djname, djtext, djimage, visible, priority, css FROM djs WHERE id = ?", id))
}

func (ds *Store) GetDJByName(name string) (DJ, error) {
	return ds.scanDJ(ds.Connection.QueryRow(
		"SELECT id, djname, djtext, djimage, visible, priority, css FROM djs WHERE djname = ?", name))
}

func (ds *Store) scanDJ(row *sql.Row) (dj DJ, err error) {
	if err = row.Scan(&dj.Id, &dj.Name, &dj.Description, &dj.Image, &dj.Visible, &dj.Priority, &dj.Css); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DJ{}, ErrNotFound
		}
		return DJ{}, err
	}
	return dj, nil
}

func (ds *Store) AddDJ(data AddDJData) (DJ, error) {
	result, err := ds.Connection.Exec(
		"INSERT INTO djs (djname, djtext, djimage, visible, priority, css) VALUES (?, ?, ?, ?, ?, ?)",
		data.Name, data.Description, data.Image, data.Visible, data.Priority, data.Css)
	if err != nil {
		if isUniqueViolation(err) {
			return DJ{}, ErrNameTaken
		}
		return DJ{}, fmt.Errorf("couldn't add dj %q: %w", data.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return DJ{}, err
	}

	return DJ{
		Id:          id,
		Name:        data.Name,
		Description: data.Description,
		Image:       data.Image,
		Visible:     data.Visible,
		Priority:    data.Priority,
		Css:         data.Css,
	}, nil
}

// UpdateDJ amends the presentation columns; the unique name stays immutable so
// existing queue and user references keep their meaning.
func (ds *Store) UpdateDJ(id int64, data UpdateDJData) error {
	result, err := ds.Connection.Exec(
		"UPDATE djs SET djtext = ?, djimage = ?, visible = ?, priority = ?, css = ? WHERE id = ?",
		data.Description, data.Image, data.Visible, data.Priority, data.Css, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteDJ removes a dj only when no user or queue entry references it.
func (ds *Store) DeleteDJ(id int64) error {
	result, err := ds.Connection.Exec("DELETE FROM djs WHERE id = ?", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	return requireAffected(result)
}

func (ds *Store) ExistsDJ(id int64) (exists bool) {
	// will return false in the absence of positive results
	var err = ds.Connection.QueryRow("SELECT TRUE FROM djs WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

func (ds *Store) GetUser(id int64) (User, error) {
	return ds.scanUser(ds.Connection.QueryRow(
		`SELECT id, user, pass, djid, privileges FROM users WHERE id = ?`, id))
}

func (ds *Store) GetUserByName(name string) (User, error) {
	return ds.scanUser(ds.Connection.QueryRow(
		`SELECT id, user, pass, djid, privileges FROM users WHERE user = ?`, name))
}

func (ds *Store) scanUser(row *sql.Row) (user User, err error) {
	if err = row.Scan(&user.Id, &user.Name, &user.Password, &user.DJId, &user.Privileges); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// AddUser stores the password verbatim; hashing is the auth collaborator's concern.
func (ds *Store) AddUser(data AddUserData) (User, error) {
	result, err := ds.Connection.Exec(
		"INSERT INTO users (user, pass, djid, privileges) VALUES (?, ?, ?, ?)",
		data.Name, data.Password, data.DJId, data.Privileges)
	if err != nil {
		if isForeignKeyViolation(err) {
			return User{}, ErrUnknownDJ
		}
		return User{}, fmt.Errorf("couldn't add user %q: %w", data.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}

	return User{
		Id:         id,
		Name:       data.Name,
		Password:   data.Password,
		DJId:       data.DJId,
		Privileges: data.Privileges,
	}, nil
}

func (ds *Store) UpdateUserPrivileges(id int64, privileges int) error {
	result, err := ds.Connection.Exec("UPDATE users SET privileges = ? WHERE id = ?", privileges, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (ds *Store) ExistsUserName(name string) (exists bool) {
	var err = ds.Connection.QueryRow("SELECT TRUE FROM users WHERE user = ?", name).Scan(&exists)
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
