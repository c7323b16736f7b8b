/*
Package profile synthesizes scenario input series when a site survey has no
measured data: a clear-sky solar availability profile, and measured load
capture from a metered feeder (see the modbusmeter subpackage).
*/
package profile

import (
	"math"
	"time"
)

const solarConstant = 1353.0 // w/m^2 at the top of the atmosphere

// Site locates the array for the clear-sky model. Latitude in radians,
// elevation in km.
type Site struct {
	Latitude  float64
	Elevation float64
}

// PVAvailability returns a 24-entry per-hour availability fraction in [0,1]
// for the given site and day, normalized to the day's peak irradiance. Days
// with no sun (polar night) return all zeros.
func PVAvailability(site Site, day time.Time) []float64 {
	profile := make([]float64, 24)
	peak := 0.0
	for hour := 0; hour < 24; hour++ {
		at := time.Date(day.Year(), day.Month(), day.Day(), hour, 30, 0, 0, day.Location())
		profile[hour] = irradiance(site, at)
		if profile[hour] > peak {
			peak = profile[hour]
		}
	}
	if peak == 0 {
		return profile
	}
	for hour := range profile {
		profile[hour] /= peak
	}
	return profile
}

// irradiance is a clear-sky estimate attenuated by air mass and boosted by
// site elevation.
func irradiance(site Site, t time.Time) float64 {
	elevation := solarElevation(site, t)
	if elevation <= 0 {
		return 0
	}

	am := 1 / math.Cos(math.Pi/2-elevation)
	direct := math.Pow(0.7, math.Pow(am, 0.678))
	boost := site.Elevation * 0.14

	return (direct*(1-boost) + boost) * solarConstant * math.Sin(elevation)
}

func solarElevation(site Site, t time.Time) float64 {
	d := declination(t)
	h := hourAngle(t)

	sinElev := math.Sin(d)*math.Sin(site.Latitude) +
		math.Cos(d)*math.Cos(site.Latitude)*math.Cos(h)
	return math.Asin(sinElev)
}

func hourAngle(t time.Time) float64 {
	hourOfDay := float64(t.Hour()*3600+t.Minute()*60+t.Second()) / 3600
	return (hourOfDay - 12) * 15 * (math.Pi / 180)
}

func declination(t time.Time) float64 {
	x := math.Sin(((float64(t.YearDay()) - 81) * 2 * math.Pi) / 365.25)
	return math.Asin(x * math.Sin(0.40928))
}
