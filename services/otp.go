package services

import (
	"context"
	"net/http"
	"sync"

	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/status"
	"storefront/monitoring"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

const flowOTP = "otp"

type OTPState int

const (
	OTPIdle OTPState = iota
	OTPCodeRequested
	OTPVerified
)

func (s OTPState) String() string {
	switch s {
	case OTPIdle:
		return "idle"
	case OTPCodeRequested:
		return "code_requested"
	case OTPVerified:
		return "verified"
	default:
		return "unknown"
	}
}

type verifyReply struct {
	IsOrganizer bool `json:"isOrganizer"`
}

// OTPFlow is the two phase phone login. The pending phone lives only
// between a successful code request and verification or cancel.
type OTPFlow struct {
	backend      *Backend
	requester    Requester
	session      *SessionStore
	printer      *message.Printer
	dashboardURL string
	monitor      *monitoring.Monitor
	log          zerolog.Logger

	mu      sync.Mutex
	state   OTPState
	pending string
}

func NewOTPFlow(backend *Backend, requester Requester, session *SessionStore, printer *message.Printer, dashboardURL string, monitor *monitoring.Monitor, log zerolog.Logger) *OTPFlow {
	return &OTPFlow{
		backend:      backend,
		requester:    requester,
		session:      session,
		printer:      printer,
		dashboardURL: dashboardURL,
		monitor:      monitor,
		log:          log.With().Str("flow", flowOTP).Logger(),
	}
}

// State returns the current state and pending phone.
func (f *OTPFlow) State() (OTPState, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.pending
}

// RequestCode asks the backend to send a code. On failure the previous
// state is kept.
func (f *OTPFlow) RequestCode(ctx context.Context, rawPhone string) FlowResult {
	phone, err := CleanPhone(rawPhone)
	if err != nil {
		f.monitor.TrackFlow(flowOTP, monitoring.OutcomeRejected)
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPInvalidPhone), Err: err}
	}

	body, err := fetch.JSONBody(map[string]string{"phone": phone})
	if err != nil {
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPRequestFailed, err.Error()), Err: err}
	}

	err = f.requester.JSON(ctx, f.backend.Endpoints().URL("/auth/request"), fetch.Options{
		Method:      http.MethodPost,
		Body:        body,
		Credentials: fetch.CredentialsInclude,
	}, &struct{}{})
	if err != nil {
		f.monitor.TrackFlow(flowOTP, monitoring.OutcomeFailed)
		f.log.Warn().Err(err).Msg("code request failed")
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPRequestFailed, failureDetail(f.printer, err)), Err: err}
	}

	f.mu.Lock()
	f.state = OTPCodeRequested
	f.pending = phone
	f.mu.Unlock()

	f.log.Info().Msg("code requested")
	return FlowResult{OK: true, Message: f.printer.Sprintf(i18n.OTPCodeSent, phone)}
}

// VerifyCode completes the login. On failure the flow stays in CodeRequested.
func (f *OTPFlow) VerifyCode(ctx context.Context, rawCode string) FlowResult {
	code, err := ValidateCode(rawCode)
	if err != nil {
		f.monitor.TrackFlow(flowOTP, monitoring.OutcomeRejected)
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPInvalidCode), Err: err}
	}

	state, phone := f.State()
	if state != OTPCodeRequested || phone == "" {
		f.monitor.TrackFlow(flowOTP, monitoring.OutcomeRejected)
		return FlowResult{
			Message: f.printer.Sprintf(i18n.OTPNoPending),
			Err:     status.NewValidationError("phone", "no pending code request"),
		}
	}

	body, err := fetch.JSONBody(map[string]string{"phone": phone, "code": code})
	if err != nil {
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPVerifyFailed, err.Error()), Err: err}
	}

	var reply verifyReply
	err = f.requester.JSON(ctx, f.backend.Endpoints().URL("/auth/verify"), fetch.Options{
		Method:      http.MethodPost,
		Body:        body,
		Credentials: fetch.CredentialsInclude,
	}, &reply)
	if err != nil {
		f.monitor.TrackFlow(flowOTP, monitoring.OutcomeFailed)
		f.log.Warn().Err(err).Msg("code verification failed")
		return FlowResult{Message: f.printer.Sprintf(i18n.OTPVerifyFailed, failureDetail(f.printer, err)), Err: err}
	}

	f.mu.Lock()
	f.state = OTPVerified
	f.pending = ""
	f.mu.Unlock()

	// A storage failure still leaves the in-memory session authenticated.
	if _, err := f.session.SetAuthenticated(ctx, reply.IsOrganizer, phone); err != nil {
		f.log.Error().Err(err).Msg("session not persisted")
	}

	f.monitor.TrackFlow(flowOTP, monitoring.OutcomeOK)
	f.log.Info().Bool("organizer", reply.IsOrganizer).Msg("login verified")

	if !reply.IsOrganizer {
		return FlowResult{OK: true, Message: f.printer.Sprintf(i18n.OTPNotOrganizer)}
	}
	return FlowResult{OK: true, Message: f.printer.Sprintf(i18n.OTPVerified), RedirectURL: f.dashboardURL}
}

// Cancel abandons a pending login and returns to Idle.
func (f *OTPFlow) Cancel() FlowResult {
	f.mu.Lock()
	f.state = OTPIdle
	f.pending = ""
	f.mu.Unlock()
	return FlowResult{OK: true, Message: f.printer.Sprintf(i18n.OTPCancelled)}
}

// Logout clears the session and resets the flow.
func (f *OTPFlow) Logout(ctx context.Context) FlowResult {
	f.Cancel()
	_, err := f.session.SetAuthenticated(ctx, false, "")
	return FlowResult{OK: err == nil, Message: f.printer.Sprintf(i18n.SessionLoggedOut), Err: err}
}
