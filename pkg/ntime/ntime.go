package ntime

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// legacyFormat matches the timezone-naive instants found in the existing data.
const legacyFormat = "2006-01-02 15:04:05"

// NTime represents a nullable timezone-naive instant.
// It can be used as a scan destination and can be marshalled to JSON.
type NTime struct {
	time    time.Time
	isValid bool // false when the column was NULL
}

// UnmarshalJSON parses a "YYYY-MM-DD HH:MM:SS" string into an NTime; "null" stays invalid.
func (nt *NTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*nt = NTime{}
		return nil
	}
	parsedTime, err := time.Parse(`"`+legacyFormat+`"`, string(b))
	if err != nil {
		return err
	}
	*nt = NTime{parsedTime, true}
	return nil
}

// MarshalJSON implements the Marshaller interface and operates on values rather than pointers.
func (nt NTime) MarshalJSON() ([]byte, error) {
	if nt.isValid {
		return []byte(fmt.Sprintf("%q", nt.time.UTC().Format(legacyFormat))), nil
	}
	return []byte("null"), nil
}

// Scan implements the Scanner interface; the driver hands over a time.Time for
// datetime columns and nil for NULL ones.
func (nt *NTime) Scan(value any) error {
	nt.time, nt.isValid = value.(time.Time)
	return nil
}

// Value implements the driver Valuer interface, storing the naive textual format
// the legacy rows use rather than the driver's default timestamp rendering.
func (nt NTime) Value() (driver.Value, error) {
	if nt.isValid {
		return driver.Value(nt.time.UTC().Format(legacyFormat)), nil
	}
	return nil, nil
}

// Now returns a valid NTime holding the current instant, truncated to whole
// seconds given the storage format's resolution.
func Now() NTime {
	return NTime{time: time.Now().UTC().Truncate(time.Second), isValid: true}
}

// From wraps an existing instant; the zero time yields a null NTime.
func From(t time.Time) NTime {
	if t.IsZero() {
		return NTime{}
	}
	return NTime{time: t.UTC().Truncate(time.Second), isValid: true}
}

// Valid reports whether the instant is set, as opposed to a NULL column.
func (nt NTime) Valid() bool {
	return nt.isValid
}

// Time returns the underlying instant; meaningless when Valid is false.
func (nt NTime) Time() time.Time {
	return nt.time
}

func (nt *NTime) Before(compared NTime) bool {
	return nt.time.Before(compared.time)
}
