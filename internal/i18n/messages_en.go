package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Purchase
	message.SetString(lang, PurchaseInvalidEvent, "Event not found.")
	message.SetString(lang, PurchaseInvalidPhone, "Enter the WhatsApp number with country and area code (10 to 15 digits).")
	message.SetString(lang, PurchaseStarted, "Order started! Tickets will be sent to %s.")
	message.SetString(lang, PurchaseTotal, "Total: %d x R$ %s = R$ %s")
	message.SetString(lang, PurchaseFailed, "Could not start the purchase. Finish it on WhatsApp.")
	message.SetString(lang, PurchaseIntent, "I want to buy %d ticket(s) for %s (%s). Send to %s. Name: %s")

	// Login
	message.SetString(lang, OTPInvalidPhone, "Invalid phone. Digits only, with country and area code.")
	message.SetString(lang, OTPCodeSent, "Code sent to %s.")
	message.SetString(lang, OTPRequestFailed, "Could not send the code: %s")
	message.SetString(lang, OTPInvalidCode, "Invalid code. Use 3 to 6 digits.")
	message.SetString(lang, OTPNoPending, "Request a code before verifying.")
	message.SetString(lang, OTPVerified, "Login confirmed.")
	message.SetString(lang, OTPNotOrganizer, "Login confirmed, but this number is not an organizer.")
	message.SetString(lang, OTPVerifyFailed, "Verification failed: %s")
	message.SetString(lang, OTPCancelled, "Login cancelled.")
	message.SetString(lang, SessionLoggedOut, "Signed out.")

	message.SetString(lang, BackendUnavailable, "service unavailable")

	// Validator
	message.SetString(lang, ValidatorEmpty, "Enter or scan a code.")
	message.SetString(lang, ValidatorValid, "Valid ticket: %s (event %s)")
	message.SetString(lang, ValidatorValidBuyer, "Valid ticket: %s (event %s), buyer %s")
	message.SetString(lang, ValidatorInvalid, "Invalid ticket: %s")
	message.SetString(lang, ValidatorUnknownReason, "unknown")
	message.SetString(lang, ValidatorFailed, "Validation failed: %s")

	// Catalog
	message.SetString(lang, PlaceholderName, "Coming soon: new events")
	message.SetString(lang, PlaceholderDescription, "We are updating the schedule. Check back shortly.")
	message.SetString(lang, PlaceholderStatus, "Last units")

	// Views
	message.SetString(lang, GalleryAll, "All")
	message.SetString(lang, GalleryEmpty, "No events found.")
	message.SetString(lang, SheetBuy, "Buy")
	message.SetString(lang, SheetSoldOut, "Sold out")
	message.SetString(lang, SheetEdit, "Edit event")
	message.SetString(lang, SheetMap, "Open map")
	message.SetString(lang, SheetPrice, "From R$ %s")
	message.SetString(lang, StatusSoldOut, "Sold out")
	message.SetString(lang, StatusLowStock, "Last units")
	message.SetString(lang, StatusComingSoon, "Coming soon")
	message.SetString(lang, IndicatorOffline, "offline")
	message.SetString(lang, NavAdmin, "Dashboard")
	message.SetString(lang, NavValidator, "Validator")
	message.SetString(lang, NavLogin, "Sign in")
	message.SetString(lang, NavLogout, "Sign out")
	message.SetString(lang, LoginPhone, "WhatsApp number")
	message.SetString(lang, LoginCode, "Code received")
}
