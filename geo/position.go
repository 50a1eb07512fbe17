package geo

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// PositionOracle reports a node's ECEF position (in kilometres) at a given
// simulation time. Every node type the engine understands — satellite or
// ground station — is driven by one of these.
type PositionOracle interface {
	Position(t time.Time) Vec3
}

// SGP4Oracle propagates a satellite from its two-line element set using
// SGP4 and converts the result from ECI to ECEF.
type SGP4Oracle struct {
	sat satellite.Satellite
}

// NewSGP4Oracle parses a TLE pair and returns an oracle that propagates it.
func NewSGP4Oracle(line1, line2 string) *SGP4Oracle {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &SGP4Oracle{sat: sat}
}

// Position propagates the satellite to t and returns its ECEF position in
// kilometres.
func (o *SGP4Oracle) Position(t time.Time) Vec3 {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}

// GroundStationOracle reports a fixed geodetic position converted once to
// ECEF. Ground stations never move, so Position ignores t.
type GroundStationOracle struct {
	ecef Vec3
}

// WGS84 semi-major axis and flattening, used for the geodetic-to-ECEF
// conversion below.
const (
	wgs84A = 6378.137
	wgs84F = 1.0 / 298.257223563
)

// NewGroundStationOracle converts a geodetic position (degrees, degrees,
// kilometres above the ellipsoid) to a fixed ECEF point.
func NewGroundStationOracle(latDeg, lonDeg, altKm float64) *GroundStationOracle {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	e2 := wgs84F * (2 - wgs84F)
	sinLat := math.Sin(lat)
	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)

	x := (n + altKm) * math.Cos(lat) * math.Cos(lon)
	y := (n + altKm) * math.Cos(lat) * math.Sin(lon)
	z := (n*(1-e2) + altKm) * sinLat

	return &GroundStationOracle{ecef: Vec3{X: x, Y: y, Z: z}}
}

// Position returns the station's fixed ECEF point. t is ignored.
func (o *GroundStationOracle) Position(t time.Time) Vec3 {
	return o.ecef
}

// StaticOracle reports a caller-supplied fixed point, useful for tests that
// want to place a node without going through geodetic coordinates.
type StaticOracle struct {
	Point Vec3
}

// Position returns the fixed point. t is ignored.
func (o StaticOracle) Position(t time.Time) Vec3 {
	return o.Point
}
