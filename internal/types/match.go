package types

import "time"

// Category identifies a class of sensitive data rendered on screen.
type Category int

const (
	CategoryEmail Category = iota
	CategoryCreditCard
	CategoryNationalID
	CategoryPhone
	CategoryAPIKey
	CategoryPassword
	CategoryIPAddress
	CategoryURL
	CategoryBankAccount
)

// String returns the wire/log name of the category.
func (c Category) String() string {
	switch c {
	case CategoryEmail:
		return "email"
	case CategoryCreditCard:
		return "credit_card"
	case CategoryNationalID:
		return "national_id"
	case CategoryPhone:
		return "phone"
	case CategoryAPIKey:
		return "api_key"
	case CategoryPassword:
		return "password"
	case CategoryIPAddress:
		return "ip_address"
	case CategoryURL:
		return "url"
	case CategoryBankAccount:
		return "bank_account"
	default:
		return "unknown"
	}
}

// Match is one detected sensitive span with its screen location.
// Text is diagnostic only and must never leave the process.
type Match struct {
	Category   Category
	Text       string
	Confidence float64
	Rect       PixelRect
}

// MatchSet is the ordered result of one detection cycle. It is produced
// atomically and never mutated after creation.
type MatchSet []Match

// Categories returns the count of matches per category name.
func (ms MatchSet) Categories() map[string]int {
	if len(ms) == 0 {
		return nil
	}
	counts := make(map[string]int, len(ms))
	for _, m := range ms {
		counts[m.Category.String()]++
	}
	return counts
}

// DetectionEvent is the outward-facing summary of a detection cycle.
// It intentionally carries categories and regions only, never matched text.
type DetectionEvent struct {
	InstanceID string         `json:"instance_id"`
	Tick       uint64         `json:"tick"`
	Timestamp  time.Time      `json:"timestamp"`
	Counts     map[string]int `json:"counts"`
	Regions    []PixelRect    `json:"regions"`
}
