package core

// VendorAmount represents funding aggregated by vendor name.
type VendorAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// FundingOverview is a compact funding summary for a specific year+month:
// how many requests were submitted and how the grand total splits by vendor.
type FundingOverview struct {
	Year         int            `json:"year"`
	Month        int            `json:"month"` // 1-12
	RequestCount int            `json:"requestCount"`
	Total        Money          `json:"total"`
	ByVendor     []VendorAmount `json:"byVendor,omitempty"`
}
