package pika

import (
	"time"

	"github.com/gonum/floats"
	"github.com/soniakeys/meeus/julian"
	"github.com/spf13/viper"
)

const (
	// GravParam is the universal gravitational constant in km^3/(kg s^2).
	GravParam = 6.67384e-20
	// MeanEarthGravity is the mean Earth surface gravity in km/s^2.
	MeanEarthGravity = 9.80665e-3
)

// RefEpoch is the catalog reference epoch (J2000) as a julian date.
var RefEpoch = julian.TimeToJD(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC))

// Body describes a celestial body (star, planet, moon). Angles are in degrees
// with respect to Earth Equatorial J2000.
type Body struct {
	Name     string
	GM       float64 // gravitational parameter (km^3/s^2)
	SMA      float64 // orbital semimajor axis (km)
	Ecc      float64 // orbital eccentricity
	Inc      float64 // orbital inclination (deg)
	RAAN     float64 // right ascension of the ascending node (deg)
	ID       int     // SPICE ID
	ParentID int     // SPICE ID of the body this body orbits; -1 when none
}

// String implements the Stringer interface.
func (b Body) String() string {
	return b.Name + " body"
}

// Equals returns whether the provided body carries the same data.
func (b Body) Equals(o Body) bool {
	return b.Name == o.Name && floats.EqualWithinAbs(b.GM, o.GM, 1e-12) &&
		floats.EqualWithinAbs(b.SMA, o.SMA, 1e-12) &&
		floats.EqualWithinAbs(b.Ecc, o.Ecc, 1e-12) &&
		floats.EqualWithinAbs(b.Inc, o.Inc, 1e-12) &&
		floats.EqualWithinAbs(b.RAAN, o.RAAN, 1e-12) &&
		b.ID == o.ID && b.ParentID == o.ParentID
}

/* Built-in catalog. GM values from DE440. */

// Sun is our closest star.
var Sun = Body{Name: "Sun", GM: 1.32712440018e11, ID: 10, ParentID: -1}

// Earth is home.
var Earth = Body{Name: "Earth", GM: 398600.4415, SMA: 149597898.0, Inc: 23.44, ID: 399, ParentID: 10}

// Moon is the Earth's Moon.
var Moon = Body{Name: "Moon", GM: 4902.8005821478, SMA: 384400.0, Inc: 5.145, ID: 301, ParentID: 399}

type bodyDef struct {
	Name     string  `mapstructure:"name"`
	GM       float64 `mapstructure:"gm"`
	CircR    float64 `mapstructure:"circ_r"`
	Inc      float64 `mapstructure:"inc"`
	RAAN     float64 `mapstructure:"raan"`
	ID       int     `mapstructure:"id"`
	ParentID int     `mapstructure:"parentId"`
}

// LoadBody reads a body by name from the data file named in the pika
// configuration. An unknown name returns a NotFoundError.
func LoadBody(name string) (Body, error) {
	v := viper.New()
	v.SetConfigFile(pikaConfig().bodyFile)
	if err := v.ReadInConfig(); err != nil {
		return Body{}, notFoundErrorf("cannot read body data file %s: %s", pikaConfig().bodyFile, err)
	}
	var defs []bodyDef
	if err := v.UnmarshalKey("body", &defs); err != nil {
		return Body{}, notFoundErrorf("malformed body data file %s: %s", pikaConfig().bodyFile, err)
	}
	for _, def := range defs {
		if def.Name != name {
			continue
		}
		pid := def.ParentID
		if pid == 0 {
			pid = -1
		}
		return Body{
			Name: def.Name,
			GM:   def.GM,
			SMA:  def.CircR,
			Ecc:  0, // TODO: read eccentricity once the data files carry a trustworthy value
			Inc:  def.Inc,
			RAAN: def.RAAN,
			ID:   def.ID,
			ParentID: pid,
		}, nil
	}
	return Body{}, notFoundErrorf("cannot find a body named %s", name)
}

// DimensionalEpoch converts a nondimensional model epoch into a calendar date
// relative to the catalog reference epoch.
func DimensionalEpoch(m DynamicsModel, t float64) time.Time {
	seconds := t * m.CharT()
	return julian.JDToTime(RefEpoch + seconds/86400)
}
