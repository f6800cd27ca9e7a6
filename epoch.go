package traj

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// J2000 is the Julian date of the J2000 reference epoch.
	J2000 = 2451545.0
	// SecondsPerDay is the number of SI seconds in a Julian day.
	SecondsPerDay = 86400.0
	// TDBMinusUTC is the fixed offset between the dynamical time scale and UTC.
	// It is 32.184 s of TT-TAI plus 37 leap seconds and ignores the periodic TDB-TT terms.
	TDBMinusUTC = 69.184
)

// Epoch is a point on the TDB time scale, stored as seconds past J2000.
type Epoch float64

// EpochFromJDE returns the epoch of the provided TDB Julian date.
func EpochFromJDE(jde float64) Epoch {
	return Epoch((jde - J2000) * SecondsPerDay)
}

// EpochFromTime interprets the calendar fields of t as TDB.
func EpochFromTime(t time.Time) Epoch {
	return EpochFromJDE(julian.TimeToJD(t.UTC()))
}

// EpochFromUTC converts a UTC timestamp into an epoch.
func EpochFromUTC(t time.Time) Epoch {
	return EpochFromTime(t).Add(TDBMinusUTC)
}

// JDE returns the TDB Julian date.
func (e Epoch) JDE() float64 {
	return J2000 + float64(e)/SecondsPerDay
}

// Time returns the epoch as a calendar date labeled in TDB.
func (e Epoch) Time() time.Time {
	return julian.JDToTime(e.JDE())
}

// UTC returns the epoch as a UTC timestamp.
func (e Epoch) UTC() time.Time {
	return e.Add(-TDBMinusUTC).Time()
}

// Add returns the epoch shifted by the provided number of seconds.
func (e Epoch) Add(seconds float64) Epoch {
	return e + Epoch(seconds)
}

// Sub returns the number of seconds between two epochs.
func (e Epoch) Sub(o Epoch) float64 {
	return float64(e - o)
}

// Before returns whether e is strictly before o.
func (e Epoch) Before(o Epoch) bool {
	return e < o
}

// After returns whether e is strictly after o.
func (e Epoch) After(o Epoch) bool {
	return e > o
}

func (e Epoch) String() string {
	if math.IsNaN(float64(e)) || math.IsInf(float64(e), 0) {
		return fmt.Sprintf("%f TDB", float64(e))
	}
	return e.Time().Format("2006-01-02T15:04:05.000") + " TDB"
}
