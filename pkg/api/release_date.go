package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateAccuracy names the least precise part of a release date: "day"
// means the day is not known, "year" means nothing is.
type DateAccuracy string

const (
	AccuracyFull  DateAccuracy = "full"
	AccuracyDay   DateAccuracy = "day"
	AccuracyMonth DateAccuracy = "month"
	AccuracyYear  DateAccuracy = "year"
)

type ReleaseDate struct {
	Date     time.Time    `json:"date"`
	Accuracy DateAccuracy `json:"accuracy"`
}

// Format renders the date as precisely as its accuracy allows. A missing
// date is "Unknown" whatever the accuracy says.
func (d ReleaseDate) Format() string {
	if d.Date.IsZero() {
		return "Unknown"
	}
	switch d.Accuracy {
	case AccuracyYear:
		return "Unknown"
	case AccuracyMonth:
		return d.Date.Format("2006")
	case AccuracyDay:
		return d.Date.Format("January 2006")
	default:
		return d.Date.Format("January 2, 2006")
	}
}

type releaseDateJSON struct {
	Date     string       `json:"date"`
	Accuracy DateAccuracy `json:"accuracy"`
}

// UnmarshalJSON accepts both a bare "YYYY-MM-DD" string (full accuracy)
// and an object with date and accuracy.
func (d *ReleaseDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("invalid release date %q: %w", s, err)
		}
		*d = ReleaseDate{Date: t, Accuracy: AccuracyFull}
		return nil
	}

	var raw releaseDateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("invalid release date %q: %w", raw.Date, err)
	}
	acc := raw.Accuracy
	if acc == "" {
		acc = AccuracyFull
	}
	*d = ReleaseDate{Date: t, Accuracy: acc}
	return nil
}

func (d ReleaseDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(releaseDateJSON{
		Date:     d.Date.Format(dateLayout),
		Accuracy: d.Accuracy,
	})
}
