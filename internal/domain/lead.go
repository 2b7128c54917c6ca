package domain

import "time"

// LeadStatus is the campaign-scoped terminal status written once per touch.
type LeadStatus string

const (
	LeadWorked LeadStatus = "WORKED"
	LeadFailed LeadStatus = "FAILED"
)

// Lead is a prospective contact with property and contact fields. The
// ingestion pipeline owns leads; the engine only reads them and writes the
// terminal status field.
type Lead struct {
	ID           int64  `json:"id" db:"id"`
	MarketRegion string `json:"market_region" db:"market_region"`

	Contact1Name  string `json:"contact1_name" db:"contact1_name"`
	Contact1Email string `json:"contact1_email" db:"contact1_email"`
	Contact2Name  string `json:"contact2_name" db:"contact2_name"`
	Contact2Email string `json:"contact2_email" db:"contact2_email"`
	Contact3Name  string `json:"contact3_name" db:"contact3_name"`
	Contact3Email string `json:"contact3_email" db:"contact3_email"`

	// Listing agent on the current MLS record, when known.
	AgentName  string `json:"agent_name" db:"agent_name"`
	AgentEmail string `json:"agent_email" db:"agent_email"`

	PropertyAddress string  `json:"property_address" db:"property_address"`
	PropertyCity    string  `json:"property_city" db:"property_city"`
	PropertyState   string  `json:"property_state" db:"property_state"`
	PropertyZip     string  `json:"property_zip" db:"property_zip"`
	AssessedTotal   float64 `json:"assessed_total" db:"assessed_total"`
	WholesaleValue  float64 `json:"wholesale_value" db:"wholesale_value"`

	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TemplateValues returns the lead's fields keyed the way subject, body, and
// PDF templates reference them.
func (l *Lead) TemplateValues() map[string]interface{} {
	return map[string]interface{}{
		"id":               l.ID,
		"market_region":    l.MarketRegion,
		"contact1_name":    l.Contact1Name,
		"contact1_email":   l.Contact1Email,
		"contact2_name":    l.Contact2Name,
		"contact2_email":   l.Contact2Email,
		"contact3_name":    l.Contact3Name,
		"contact3_email":   l.Contact3Email,
		"agent_name":       l.AgentName,
		"agent_email":      l.AgentEmail,
		"property_address": l.PropertyAddress,
		"property_city":    l.PropertyCity,
		"property_state":   l.PropertyState,
		"property_zip":     l.PropertyZip,
		"assessed_total":   l.AssessedTotal,
		"wholesale_value":  l.WholesaleValue,
	}
}

// ContactRole identifies which of a lead's contact slots a recipient came
// from. Derived, never persisted on the lead itself.
type ContactRole string

const (
	RoleContact1 ContactRole = "contact1"
	RoleContact2 ContactRole = "contact2"
	RoleContact3 ContactRole = "contact3"
	RoleAgent    ContactRole = "agent"
	// RoleTest marks the safety-mode override recipient.
	RoleTest ContactRole = "test"
)

// Recipient is one candidate (name, email) pair on a lead. The role tags
// which slot it came from so logging and templates can reference it without
// reconstructing partially-filled lead copies.
type Recipient struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  ContactRole `json:"role"`
}
