package sqldb

// -----------------------------------------------------------------------------
// REPORT QUERIES ('?' placeholders, rebound per dialect)
// -----------------------------------------------------------------------------

// Every watershed property with its location, type and the short-term prices for
// the same location/type pair. One row per watershed property when prices are
// unique per pair.
const baseReportSQL = `
SELECT
  w.ws_property_id,
  l.location_id,
  l.city,
  l.state,
  l.zipcode,
  p.apt_house,
  p.num_bedrooms,
  p.kitchen,
  p.shared,
  w.current_monthly_rent,
  s.percentile_10th_price,
  s.percentile_90th_price,
  s.sample_nightly_rent_price
FROM watershed_property_info w
JOIN location l
  ON w.location = l.location_id
JOIN property_type p
  ON w.property_type = p.property_type_id
JOIN st_rental_prices s
  ON s.location = w.location AND s.property_type = w.property_type
ORDER BY w.ws_property_id
`

// Base report plus each short-term comparable (same location AND property type)
// and its occupancy over [start, end). Args: days in year, start, end.
//
// Both joins are outer: a comparable with no rentals in the year keeps
// its row with occupancy 0, and a watershed property with no comparable keeps its
// row with NULL st_property_id / occupancy_rate. The year filter sits in the ON
// clause so it cannot turn the LEFT JOIN back into an inner one.
const comparablesReportSQL = `
SELECT
  w.ws_property_id,
  l.location_id,
  l.city,
  l.state,
  l.zipcode,
  p.apt_house,
  p.num_bedrooms,
  p.kitchen,
  p.shared,
  w.current_monthly_rent,
  s.percentile_10th_price,
  s.percentile_90th_price,
  s.sample_nightly_rent_price,
  spi.st_property_id,
  MIN(srd.rental_date)            AS rental_date,
  COUNT(DISTINCT srd.rental_date) AS rented_days,
  CASE WHEN spi.st_property_id IS NULL THEN NULL
       ELSE COUNT(DISTINCT srd.rental_date) * 1.0 / ?
  END                             AS occupancy_rate
FROM watershed_property_info w
JOIN location l
  ON w.location = l.location_id
JOIN property_type p
  ON w.property_type = p.property_type_id
JOIN st_rental_prices s
  ON s.location = w.location AND s.property_type = w.property_type
LEFT JOIN st_property_info spi
  ON spi.location = w.location AND spi.property_type = w.property_type
LEFT JOIN st_rental_dates srd
  ON srd.st_property = spi.st_property_id
 AND srd.rental_date >= ? AND srd.rental_date < ?
GROUP BY
  w.ws_property_id, l.location_id, l.city, l.state, l.zipcode,
  p.apt_house, p.num_bedrooms, p.kitchen, p.shared,
  w.current_monthly_rent,
  s.percentile_10th_price, s.percentile_90th_price, s.sample_nightly_rent_price,
  spi.st_property_id
ORDER BY w.ws_property_id, spi.st_property_id
`

// -----------------------------------------------------------------------------
// FIXTURE WRITES (MySQL only; the seeder and integration tests use them)
// -----------------------------------------------------------------------------

const upsertLocationsPrefix = "INSERT INTO location (location_id, city, state, zipcode) VALUES "

const upsertLocationsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  city    = VALUES(city),\n" +
	"  state   = VALUES(state),\n" +
	"  zipcode = VALUES(zipcode)\n"

const upsertPropertyTypesPrefix = "INSERT INTO property_type (property_type_id, apt_house, num_bedrooms, kitchen, shared) VALUES "

const upsertPropertyTypesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  apt_house    = VALUES(apt_house),\n" +
	"  num_bedrooms = VALUES(num_bedrooms),\n" +
	"  kitchen      = VALUES(kitchen),\n" +
	"  shared       = VALUES(shared)\n"

const upsertWatershedPrefix = "INSERT INTO watershed_property_info (ws_property_id, location, property_type, current_monthly_rent) VALUES "

const upsertWatershedOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  location             = VALUES(location),\n" +
	"  property_type        = VALUES(property_type),\n" +
	"  current_monthly_rent = VALUES(current_monthly_rent)\n"

const upsertSTPropertiesPrefix = "INSERT INTO st_property_info (st_property_id, location, property_type) VALUES "

const upsertSTPropertiesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  location      = VALUES(location),\n" +
	"  property_type = VALUES(property_type)\n"

const upsertPricesPrefix = "INSERT INTO st_rental_prices " +
	"(location, property_type, percentile_10th_price, percentile_90th_price, sample_nightly_rent_price) VALUES "

const upsertPricesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  percentile_10th_price     = VALUES(percentile_10th_price),\n" +
	"  percentile_90th_price     = VALUES(percentile_90th_price),\n" +
	"  sample_nightly_rent_price = VALUES(sample_nightly_rent_price)\n"

// the (st_property, rental_date) unique key makes re-seeding a no-op
const insertRentalDatesPrefix = "INSERT IGNORE INTO st_rental_dates (rental_date, st_property) VALUES "
