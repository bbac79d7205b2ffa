package catalog

import (
	"fmt"

	"github.com/ferrata/stationdb/pkg/ntime"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Song models a row of the legacy `esong` table: the abstract identity of a piece of
// music, keyed by surrogate id and by the digest of its lowercased metadata.
type Song struct {
	Id     int64
	Digest string
	Length int // seconds
	Meta   string

	// HashLink is carried for compatibility with existing rows; nothing interprets it.
	HashLink string
}

// Track models a row of the legacy `tracks` table: a locally held playable file,
// resolved through its own digest namespace, independent from Song digests.
type Track struct {
	Id            int64
	Artist        string
	Title         string
	Album         string
	Filename      string
	SearchTags    string
	LastPlayed    ntime.NTime
	LastRequested ntime.NTime
	Usable        bool
	Acceptor      string
	LastEditor    string
	Digest        string
	Priority      int
	RequestCount  int
	NeedsReupload bool
}

// Metadata renders the track's canonical metadata string, the input to digest derivation.
func (track Track) Metadata() string {
	if track.Artist == "" {
		return track.Title
	}
	return fmt.Sprintf("%s - %s", track.Artist, track.Title)
}

type AddSongData struct {
	Meta     string
	Length   int
	HashLink string
}

// Validate deliberately allows empty metadata: the empty string hashes like any other.
func (data AddSongData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Length, validation.Min(0)),
		validation.Field(&data.HashLink, validation.Length(0, 40)),
	)
}

type UpdateSongData struct {
	Meta     string
	HashLink string
}

func (data UpdateSongData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.HashLink, validation.Length(0, 40)),
	)
}

// AddTrackData carries the caller supplied track columns; field limits mirror the
// legacy column sizes.
type AddTrackData struct {
	Artist     string
	Title      string
	Album      string
	Filename   string
	SearchTags string
	Acceptor   string
	LastEditor string
	Priority   int
	Usable     bool
}

func (data AddTrackData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Artist, validation.Length(0, 500)),
		validation.Field(&data.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&data.Album, validation.Length(0, 200)),
		validation.Field(&data.Filename, validation.Required),
		validation.Field(&data.Acceptor, validation.Length(0, 200)),
		validation.Field(&data.LastEditor, validation.Length(0, 200)),
	)
}

// metadata builds the string the track's digest derives from, before lowercasing.
func (data AddTrackData) metadata() string {
	if data.Artist == "" {
		return data.Title
	}
	return fmt.Sprintf("%s - %s", data.Artist, data.Title)
}

type UpdateUsableData struct {
	Usable bool
}

func (data UpdateUsableData) Validate() error {
	return nil
}

type UpdateReuploadData struct {
	NeedsReupload bool
}

func (data UpdateReuploadData) Validate() error {
	return nil
}
