package directory

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// The directory tables are plain reference data: attribute bags consumed by the
// catalog, ledger and queue through foreign keys. Field limits mirror the legacy
// column sizes.

// DJ models a row of the legacy `djs` table.
type DJ struct {
	Id          int64
	Name        string
	Description string
	Image       string
	Visible     bool
	Priority    int
	Css         string
}

// User models a row of the legacy `users` table. Password is opaque: it is stored
// exactly as given, hashing policy belongs to the external auth collaborator.
type User struct {
	Id         int64
	Name       string
	Password   string
	DJId       int64
	Privileges int
}

// Nickname models a row of the legacy `enick` table, the identity anchor for faves.
type Nickname struct {
	Id        int64
	Nickname  string
	FirstSeen time.Time
	// Dtb is carried for compatibility with existing rows; nothing interprets it.
	Dtb      *time.Time
	Authcode *string
}

// NickRequest models a row of the legacy `nickrequesttime` table, an append-only
// audit trail of nickname claims used for rate limiting.
type NickRequest struct {
	Id   int64
	Host string
	Time time.Time
}

// LastFm models a row of the legacy `lastfm` table, linking a chat nickname to an
// external scrobbling account.
type LastFm struct {
	Id       int64
	Nick     string
	Username string
}

// Relay models a row of the legacy `relays` table, the mirror registry. It has no
// relationship to the catalog and declares no natural key, so duplicate subdomains
// remain legal.
type Relay struct {
	Id            int64
	Subdomain     string
	Owner         string
	BaseName      string
	Port          int
	Mountpoint    string
	Bitrate       int
	Format        string
	Priority      *int
	Listeners     int
	ListenerLimit *int
	Active        bool
	Passcode      string
	Country       string
	Disabled      bool
}

type AddDJData struct {
	Name        string
	Description string
	Image       string
	Visible     bool
	Priority    int
	Css         string
}

func (data AddDJData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.Length(1, 60)),
		validation.Field(&data.Css, validation.Length(0, 60)),
	)
}

type UpdateDJData struct {
	Description string
	Image       string
	Visible     bool
	Priority    int
	Css         string
}

func (data UpdateDJData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Css, validation.Length(0, 60)),
	)
}

type AddUserData struct {
	Name       string
	Password   string
	DJId       int64
	Privileges int
}

func (data AddUserData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&data.Password, validation.Required, validation.Length(1, 120)),
		validation.Field(&data.DJId, validation.Required),
		validation.Field(&data.Privileges, validation.Min(0)),
	)
}

type AddNicknameData struct {
	Nickname string
}

func (data AddNicknameData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Nickname, validation.Required, validation.Length(1, 30)),
	)
}

type SetAuthcodeData struct {
	// Authcode is nullable; a nil value clears the code.
	Authcode *string
}

func (data SetAuthcodeData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Authcode, validation.Length(1, 8)),
	)
}

type AddLastFmData struct {
	Nick     string
	Username string
}

func (data AddLastFmData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Nick, validation.Required, validation.Length(1, 150)),
		validation.Field(&data.Username, validation.Required, validation.Length(1, 150)),
	)
}

// AddRelayData leaves most columns optional; unset ones fall back to the legacy
// defaults through withDefaults.
type AddRelayData struct {
	Subdomain     string
	Owner         string
	BaseName      string
	Port          int
	Mountpoint    string
	Bitrate       int
	Format        string
	Priority      *int
	ListenerLimit *int
	Passcode      string
	Country       string
}

func (data AddRelayData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Subdomain, validation.Length(0, 200)),
		validation.Field(&data.Owner, validation.Length(0, 200)),
		validation.Field(&data.BaseName, validation.Length(0, 200)),
		validation.Field(&data.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&data.Mountpoint, validation.Length(0, 200)),
		validation.Field(&data.Format, validation.Length(0, 14)),
		validation.Field(&data.Passcode, validation.Length(0, 200)),
		validation.Field(&data.Country, validation.Length(0, 20)),
	)
}

// withDefaults fills unset columns with the defaults the legacy schema declares.
// Priority stays nullable in the schema yet defaults to 0 here; the distinction is
// preserved, not rationalised, since its meaning was never documented.
func (data AddRelayData) withDefaults() AddRelayData {
	if data.Port == 0 {
		data.Port = 1130
	}
	if data.Mountpoint == "" {
		data.Mountpoint = "/main.mp3"
	}
	if data.Bitrate == 0 {
		data.Bitrate = 192
	}
	if data.Format == "" {
		data.Format = "mp3"
	}
	if data.Country == "" {
		data.Country = "us"
	}
	if data.Priority == nil {
		var zero = 0
		data.Priority = &zero
	}
	return data
}
