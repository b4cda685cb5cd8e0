package i18n

const (
	PurchaseInvalidEvent = "purchase.invalid_event"
	PurchaseInvalidPhone = "purchase.invalid_phone"
	PurchaseStarted      = "purchase.started"
	PurchaseTotal        = "purchase.total"
	PurchaseFailed       = "purchase.failed"
	PurchaseIntent       = "purchase.intent"

	OTPInvalidPhone  = "otp.invalid_phone"
	OTPCodeSent      = "otp.code_sent"
	OTPRequestFailed = "otp.request_failed"
	OTPInvalidCode   = "otp.invalid_code"
	OTPNoPending     = "otp.no_pending"
	OTPVerified      = "otp.verified"
	OTPNotOrganizer  = "otp.not_organizer"
	OTPVerifyFailed  = "otp.verify_failed"
	OTPCancelled     = "otp.cancelled"
	SessionLoggedOut = "session.logged_out"

	BackendUnavailable = "backend.unavailable"

	ValidatorEmpty         = "validator.empty"
	ValidatorValid         = "validator.valid"
	ValidatorValidBuyer    = "validator.valid_buyer"
	ValidatorInvalid       = "validator.invalid"
	ValidatorUnknownReason = "validator.unknown_reason"
	ValidatorFailed        = "validator.failed"

	PlaceholderName        = "catalog.placeholder_name"
	PlaceholderDescription = "catalog.placeholder_description"
	PlaceholderStatus      = "catalog.placeholder_status"

	GalleryAll       = "gallery.all"
	GalleryEmpty     = "gallery.empty"
	SheetBuy         = "sheet.buy"
	SheetSoldOut     = "sheet.sold_out"
	SheetEdit        = "sheet.edit"
	SheetMap         = "sheet.map"
	SheetPrice       = "sheet.price"
	StatusSoldOut    = "status.sold_out"
	StatusLowStock   = "status.low_stock"
	StatusComingSoon = "status.coming_soon"
	IndicatorOffline = "indicator.offline"
	NavAdmin         = "nav.admin"
	NavValidator     = "nav.validator"
	NavLogin         = "nav.login"
	NavLogout        = "nav.logout"
	LoginPhone       = "login.phone"
	LoginCode        = "login.code"
)
