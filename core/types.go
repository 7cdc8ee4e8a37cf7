package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const DateLayout = "2006-01-02"

var (
	errInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	errInvalidID   = errors.New("invalid id")
	errInvalidList = errors.New("must be a list of strings")
	errInvalidCode = errors.New("must be a string or a number")
)

// Date is a calendar date serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	s = CleanString(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)] // tolerate datetimes
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, errInvalidDate
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errInvalidDate
	}
	if CleanString(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Code is a textual identifier (like a course NRC) that also accepts a JSON number on input.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidCode
		}
		*c = Code(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errInvalidCode
	}
	*c = Code(num.String())
	return nil
}

// NullableID is a tri-state reference used in partial updates:
// absent (Set == false), cleared (Set && !Valid) or assigned (Set && Valid).
// JSON null and "" clear the reference; a number or a numeric string assigns it.
type NullableID struct {
	null.Int
	Set bool
}

func NullableIDFrom(id int) NullableID {
	return NullableID{Int: null.IntFrom(id), Set: true}
}

// ID returns the referenced ID; zero when not assigned.
func (n NullableID) ID() int {
	if !n.Valid {
		return 0
	}
	return n.Int.Int
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	return n.Int.MarshalJSON()
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Int = null.Int{}

	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidID
		}
		if raw = CleanString(s); raw == "" {
			return nil
		}
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return errInvalidID
	}
	n.Int = null.IntFrom(id)
	return nil
}

// StringList is an ordered list of strings that also accepts a string holding a JSON list on input.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errInvalidList
	}
	if s = CleanString(s); s == "" {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return errInvalidList
	}
	*l = list
	return nil
}
