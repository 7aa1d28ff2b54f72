// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Branding customizes how an organization is presented.
type Branding struct {
	LogoURL        string `gorm:"type:text" json:"logo_url"`
	PrimaryColor   string `gorm:"type:text" json:"primary_color"`
	SecondaryColor string `gorm:"type:text" json:"secondary_color"`
	DisplayName    string `gorm:"type:text" json:"display_name"`
}

type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"type:text;not null" json:"name"`
	Domain   *string   `gorm:"type:citext" json:"domain"`
	Branding Branding  `gorm:"embedded;embeddedPrefix:branding_" json:"branding"`
	Plan     PlanTag   `gorm:"type:text;not null;default:'enterprise'" json:"plan"`

	BillingCustomerRef string       `gorm:"type:text" json:"billing_customer_ref"`
	MaxSeats           int          `json:"max_seats"`
	PricePerSeat       float64      `gorm:"type:numeric(12,2)" json:"price_per_seat"`
	BillingCycle       BillingCycle `gorm:"type:text;not null;default:'monthly'" json:"billing_cycle"`

	SeatCount            int        `json:"seat_count"`
	AnalysisCount        int64      `json:"analysis_count"`
	MonthlyAnalysisCount int64      `json:"monthly_analysis_count"`
	UsagePeriod          string     `gorm:"type:text" json:"usage_period"`
	LastResetAt          *time.Time `json:"last_reset_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationUsage is the recomputed usage snapshot persisted by the details read.
type OrganizationUsage struct {
	SeatCount            int
	AnalysisCount        int64
	MonthlyAnalysisCount int64
	UsagePeriod          string
}

// UsagePeriod returns the calendar-month tag ("2006-01") that t falls in.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthStart returns the first instant of t's calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
