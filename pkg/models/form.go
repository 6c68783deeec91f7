package models

// SubscribeRequest is the raw lead-capture payload posted by the marketing
// site forms. Only Email is mandatory; everything else is optional and may
// arrive with arbitrary formatting.
type SubscribeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessType string `json:"businessType"`
	PrimaryNeed  string `json:"primary_need"`
	List         string `json:"list"`
}

// Profile represents the normalized contact sent to Klaviyo after
// transformations (email lowercasing, name splitting, phone formatting).
type Profile struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      string // E.164, empty when the submitted phone was unparseable
	Properties map[string]interface{}
}

// SubscribeResult reports the outcome of a successfully processed submission.
type SubscribeResult struct {
	ListID    string
	ProfileID string
}
