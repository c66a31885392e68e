package domain

import "time"

// Tables of the capstone database, in the order the workflow walks them.
var CapstoneTables = []string{
	"location",
	"property_type",
	"st_property_info",
	"st_rental_dates",
	"st_rental_prices",
	"watershed_property_info",
}

type Location struct {
	ID      int64
	City    string
	State   string
	Zipcode int
}

type PropertyType struct {
	ID          int64
	AptHouse    string // apartment|house
	NumBedrooms int
	Kitchen     bool
	Shared      bool
}

type WatershedProperty struct {
	ID                 int64
	LocationID         int64
	PropertyTypeID     int64
	CurrentMonthlyRent float64
}

type STProperty struct {
	ID             string
	LocationID     int64
	PropertyTypeID int64
}

type STRentalPrice struct {
	LocationID             int64
	PropertyTypeID         int64
	Percentile10thPrice    float64
	Percentile90thPrice    float64
	SampleNightlyRentPrice float64
}

type STRentalDate struct {
	STPropertyID string
	RentalDate   time.Time
}

// Fixture is a full capstone dataset.
type Fixture struct {
	Locations     []Location
	PropertyTypes []PropertyType
	Watershed     []WatershedProperty
	STProperties  []STProperty
	Prices        []STRentalPrice
	RentalDates   []STRentalDate
}

// YN renders a flag the way the capstone tables store it.
func YN(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
