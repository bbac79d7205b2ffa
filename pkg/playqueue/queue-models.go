package playqueue

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Entry models a row of the `queue` table: a pending or in-flight playback request.
// An entry exists until its consumer explicitly removes it; there are no internal
// status transitions and Type stays an opaque discriminator interpreted by callers.
type Entry struct {
	Id      int64
	Type    int
	Time    time.Time
	SongId  int64
	TrackId *int64
	Ip      *string
	DJId    int64
}

type EnqueueData struct {
	SongId int64
	// TrackId is optional; requests for songs with no local file carry none.
	TrackId *int64
	DJId    int64
	// Ip records the requester's origin when the request came from a listener.
	Ip   *string
	Type int
}

func (data EnqueueData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.SongId, validation.Required),
		validation.Field(&data.DJId, validation.Required),
		validation.Field(&data.Ip, is.IP),
		validation.Field(&data.Type, validation.Min(0)),
	)
}
