package dto

import "strings"

// CreateInboxMessageRequest appends a message to a partner inbox. EmailOrName is accepted as an
// alias for PartnerName.
type CreateInboxMessageRequest struct {
	PartnerName string `json:"partnerName"`
	EmailOrName string `json:"emailOrName"`
	Subject     string `json:"subject" validate:"max=300"`
	Content     string `json:"content" validate:"max=10000"`
}

// Recipient returns the addressed partner name.
func (r CreateInboxMessageRequest) Recipient() string {
	if name := strings.TrimSpace(r.PartnerName); name != "" {
		return name
	}
	return strings.TrimSpace(r.EmailOrName)
}
