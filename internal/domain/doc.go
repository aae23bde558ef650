// Package domain models weather observations for the Tangerang–Merak toll
// corridor.
//
// # Data Source
//
// Observations come from a published Google Sheets CSV export maintained by
// the road operator's field stations. The sheet is loosely typed: it is edited
// by an upstream script and occasionally by hand, so malformed cells are
// expected and must degrade to "unknown" rather than abort the table.
//
// # Source Conventions
//
// Column headers (exact, Indonesian):
//
//	Lokasi                   location name, one of a fixed ordered set
//	Update Terakhir (WIB)    observation time, "02/01/2006 15:04:05" in WIB (UTC+7)
//	Temperatur (°C)          temperature
//	Kelembapan (%)           relative humidity
//	Kecepatan Angin (m/s)    wind speed
//	Curah Hujan (mm)         rainfall
//	Ikon                     OpenWeatherMap icon code, e.g. "10d"
//	Deskripsi Cuaca          free-text description
//	Kode Koordinat           "lat,lon" coordinate pair
//
// Numeric cells use a comma decimal separator ("12,5" means 12.5). An empty
// cell means no data, which is distinct from zero: a rainfall cell of "" is
// unknown, "0" is a dry reading. Normalization therefore maps empty and
// unparseable cells to nil, never to 0.
//
// # Null Propagation
//
// [Normalize] is total: every input row yields exactly one [Observation], and
// no cell-level failure raises past the normalizer. Rows with an unparseable
// timestamp keep a nil ObservedAt and are excluded from date-bucketed
// aggregates but retained in the table.
package domain
