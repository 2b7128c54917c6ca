package engine

import "github.com/omegatable/outreach/internal/domain"

// SafetyConfig redirects all outbound mail to a single test address. With
// safety enabled and no test recipient configured, leads are processed with
// an empty recipient list (nothing is sent).
type SafetyConfig struct {
	Enabled       bool
	TestRecipient string
}

// Recipients builds the candidate recipient list for a lead: up to three
// contacts plus the listing agent, keeping only pairs with both a name and
// an email. In safety mode the real list collapses to the test recipient.
func Recipients(lead *domain.Lead, safety SafetyConfig) []domain.Recipient {
	if safety.Enabled {
		if safety.TestRecipient == "" {
			return nil
		}
		return []domain.Recipient{{Name: "Test", Email: safety.TestRecipient, Role: domain.RoleTest}}
	}

	candidates := []domain.Recipient{
		{Name: lead.Contact1Name, Email: lead.Contact1Email, Role: domain.RoleContact1},
		{Name: lead.Contact2Name, Email: lead.Contact2Email, Role: domain.RoleContact2},
		{Name: lead.Contact3Name, Email: lead.Contact3Email, Role: domain.RoleContact3},
		{Name: lead.AgentName, Email: lead.AgentEmail, Role: domain.RoleAgent},
	}

	out := make([]domain.Recipient, 0, len(candidates))
	for _, c := range candidates {
		if c.Name == "" || c.Email == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
