package directory

import (
	"database/sql"
	"errors"
)

const relayColumns = `id, relay_name, relay_owner, base_name, port, mount, bitrate,
	format, priority, listeners, listener_limit, active, passcode, country, disabled`

func (ds *Store) GetRelays() ([]Relay, error) {
	// initialise an empty slice to avoid null serialisation
	var relays = make([]Relay, 0)

	rows, err := ds.Connection.Query("SELECT " + relayColumns + " FROM relays ORDER BY id")
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var relay Relay
		if err = scanRelay(rows.Scan, &relay); err != nil {
			return relays, err
		}
		relays = append(relays, relay)
	}

	if err = rows.Err(); err != nil {
		return relays, err
	}
	return relays, rows.Close()
}

func (ds *Store) GetRelay(id int64) (Relay, error) {
	var relay Relay
	var row = ds.Connection.QueryRow("SELECT "+relayColumns+" FROM relays WHERE id = ?", id)
	if err := scanRelay(row.Scan, &relay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Relay{}, ErrNotFound
		}
		return Relay{}, err
	}
	return relay, nil
}

func scanRelay(scan func(dest ...any) error, relay *Relay) error {
	return scan(
		&relay.Id,
		&relay.Subdomain,
		&relay.Owner,
		&relay.BaseName,
		&relay.Port,
		&relay.Mountpoint,
		&relay.Bitrate,
		&relay.Format,
		&relay.Priority,
		&relay.Listeners,
		&relay.ListenerLimit,
		&relay.Active,
		&relay.Passcode,
		&relay.Country,
		&relay.Disabled,
	)
}

// AddRelay registers a mirror, falling back to the legacy defaults for unset
// columns. No natural key exists, so nothing stops duplicate subdomains.
func (ds *Store) AddRelay(data AddRelayData) (Relay, error) {
	data = data.withDefaults()

	result, err := ds.Connection.Exec(`
		INSERT INTO relays (relay_name, relay_owner, base_name, port, mount, bitrate, format, priority, listener_limit, passcode, country)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Subdomain, data.Owner, data.BaseName, data.Port, data.Mountpoint,
		data.Bitrate, data.Format, data.Priority, data.ListenerLimit, data.Passcode, data.Country)
	if err != nil {
		return Relay{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Relay{}, err
	}

	return Relay{
		Id:            id,
		Subdomain:     data.Subdomain,
		Owner:         data.Owner,
		BaseName:      data.BaseName,
		Port:          data.Port,
		Mountpoint:    data.Mountpoint,
		Bitrate:       data.Bitrate,
		Format:        data.Format,
		Priority:      data.Priority,
		ListenerLimit: data.ListenerLimit,
		Passcode:      data.Passcode,
		Country:       data.Country,
	}, nil
}

// SetRelayListeners records a poll result; the listener count belongs to the relay
// health collaborator and never touches any other column.
func (ds *Store) SetRelayListeners(id int64, listeners int) error {
	result, err := ds.Connection.Exec("UPDATE relays SET listeners = ? WHERE id = ?", listeners, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (ds *Store) SetRelayActive(id int64, active bool) error {
	result, err := ds.Connection.Exec("UPDATE relays SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetRelayDisabled flips the administrative kill switch, distinct from the polled
// active flag.
func (ds *Store) SetRelayDisabled(id int64, disabled bool) error {
	result, err := ds.Connection.Exec("UPDATE relays SET disabled = ? WHERE id = ?", disabled, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (ds *Store) DeleteRelay(id int64) error {
	result, err := ds.Connection.Exec("DELETE FROM relays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
