package models

// Session is the authentication state of one visitor.
type Session struct {
	Organizer bool   `json:"organizer"`
	Phone     string `json:"phone,omitempty"`
}

// Visibility lists which organizer affordances the UI shows.
type Visibility struct {
	AdminNav        bool   `json:"admin_nav"`
	OrganizerFields bool   `json:"organizer_fields"`
	ValidatorPanel  bool   `json:"validator_panel"`
	Indicator       string `json:"indicator"`
}

const IndicatorOffline = "offline"

// VisibilityFor is the only mapping from session state to organizer affordances.
func VisibilityFor(s Session) Visibility {
	if !s.Organizer {
		return Visibility{Indicator: IndicatorOffline}
	}
	return Visibility{
		AdminNav:        true,
		OrganizerFields: true,
		ValidatorPanel:  true,
		Indicator:       s.Phone,
	}
}
