package model

const (
	DefaultSearchRadiusKm = 10.0
	MaxSearchRadiusKm     = 500.0
	MaxSearchRating       = 5.0
)

// ServiceSearch narrows a service search. Tenant is a subdomain and only applies to public searches.
type ServiceSearch struct {
	Query       string
	Category    string
	Tenant      string
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	MinRating   *float64
}

type ProviderSearch struct {
	Query          string
	Specialization string
	ServiceID      string
	City           string
	Tenant         string
	MinRating      *float64

	// ProviderIDs restricts results to these principals when non-nil. Resolved from ServiceID.
	ProviderIDs []string
}

type NearbySearch struct {
	Lat            *float64
	Lng            *float64
	RadiusKm       *float64
	Specialization string
	Tenant         string
}

type TenantSearch struct {
	Query        string
	BusinessType string
	City         string
}
