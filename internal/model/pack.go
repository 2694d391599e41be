package model

import "time"

// Pack is one battery pack specification, identified by its vehicle
// application. Two rows with the same (oem, model, variant, year, market)
// describe the same pack and are rejected on create.
type Pack struct {
	ID            int64     `json:"id"`
	OEM           string    `json:"oem"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	Variant       *string   `json:"variant"`
	Market        *string   `json:"market"`
	FuelType      *string   `json:"fuel_type"`
	VehicleClass  *string   `json:"vehicle_class"`
	Drivetrain    *string   `json:"drivetrain"`
	Platform      *string   `json:"platform"`
	IsActive      bool      `json:"is_active"`
	CreatedBy     *int64    `json:"created_by"`
	CreatedByName *string   `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PackFilter narrows and pages a pack listing. Zero values mean "no filter".
type PackFilter struct {
	OEM          string
	Model        string
	Market       string
	FuelType     string
	VehicleClass string
	Drivetrain   string
	Platform     string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortDir      string
}

// PackPage is one page of a filtered listing.
type PackPage struct {
	Items    []Pack `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
