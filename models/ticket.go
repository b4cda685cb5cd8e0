package models

// CheckResult is the validator backend verdict for one scanned code.
type CheckResult struct {
	Valid     bool   `json:"valid"`
	TicketID  string `json:"ticketId"`
	EventID   string `json:"eventId"`
	BuyerName string `json:"buyerName,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
