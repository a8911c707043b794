package models

// ImpactSnapshot holds totals derived from donation offers. It is never persisted.
type ImpactSnapshot struct {
	TotalKg              float64 `json:"total_kg"`
	DonationCount        int     `json:"donation_count"`
	MealsFed             int     `json:"meals_fed"`
	OrganizationsEngaged int     `json:"organizations_engaged"`
	ActiveToday          int     `json:"active_today"`
	CO2SavedKg           float64 `json:"co2_saved_kg"`
}
