package chrono

import (
	"time"

	_ "time/tzdata"
)

var brussels *time.Location

func init() {
	var err error
	brussels, err = time.LoadLocation("Europe/Brussels")
	if err != nil {
		panic(err)
	}
}

// Brussels returns a [*time.Location] for Europe/Brussels, the timezone the portal reports in.
func Brussels() *time.Location {
	return brussels
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in Europe/Brussels.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(brussels)
}
