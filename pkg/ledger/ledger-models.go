package ledger

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Play models a row of the legacy `eplay` table: one historical playback event.
// Rows are append-only; nothing ever updates or deletes them.
type Play struct {
	Id     int64
	SongId int64
	Time   time.Time
}

// Fave models a row of the legacy `efave` table: a listener marking a song as
// favourite. The legacy schema declares no uniqueness over (nickname, song), so
// duplicate pairs are legal and yield distinct rows.
type Fave struct {
	Id     int64
	NickId int64
	SongId int64
}

type RecordPlayData struct {
	SongId int64
	// Time is optional; the zero value records the current instant.
	Time time.Time
}

func (data RecordPlayData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.SongId, validation.Required),
	)
}

type RecordFaveData struct {
	NickId int64
	SongId int64
}

func (data RecordFaveData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.NickId, validation.Required),
		validation.Field(&data.SongId, validation.Required),
	)
}
