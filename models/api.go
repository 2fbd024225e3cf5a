package models

// HealthCheckResponse returns the health check response struct
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// RegistrationResponse is returned by the registration entry point on success
type RegistrationResponse struct {
	UserID       string `json:"userId"`
	ReferralCode string `json:"referralCode"`
	Rank         int    `json:"rank"`
	RankName     string `json:"rankName"`
	Credited     bool   `json:"credited"`
}

// ReferralErrorResponse is the structured error envelope for referral
// validation failures
type ReferralErrorResponse struct {
	Error ReferralError `json:"error"`
}

// ReferralError carries the machine-readable code and a human message
type ReferralError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
