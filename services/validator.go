package services

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/status"
	"storefront/models"
	"storefront/monitoring"
	"storefront/notify"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

const (
	flowValidator = "validator"

	// TicketCodePrefix is what the QR codes on tickets carry before the code.
	TicketCodePrefix = "ingressai:ticket:"
)

type ValidatorResult struct {
	FlowResult
	Ticket *models.CheckResult `json:"ticket,omitempty"`
}

type ValidatorFlow struct {
	backend   *Backend
	requester Requester
	printer   *message.Printer
	monitor   *monitoring.Monitor
	publisher notify.Publisher
	log       zerolog.Logger
}

func NewValidatorFlow(backend *Backend, requester Requester, printer *message.Printer, monitor *monitoring.Monitor, publisher notify.Publisher, log zerolog.Logger) *ValidatorFlow {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &ValidatorFlow{
		backend:   backend,
		requester: requester,
		printer:   printer,
		monitor:   monitor,
		publisher: publisher,
		log:       log.With().Str("flow", flowValidator).Logger(),
	}
}

// StripTicketPrefix removes the QR prefix, matched case-insensitively.
func StripTicketPrefix(input string) string {
	code := strings.TrimSpace(input)
	if len(code) >= len(TicketCodePrefix) && strings.EqualFold(code[:len(TicketCodePrefix)], TicketCodePrefix) {
		code = code[len(TicketCodePrefix):]
	}
	return strings.TrimSpace(code)
}

func (f *ValidatorFlow) Check(ctx context.Context, input string) ValidatorResult {
	code := StripTicketPrefix(input)
	if code == "" {
		f.monitor.TrackFlow(flowValidator, monitoring.OutcomeRejected)
		return ValidatorResult{FlowResult: FlowResult{
			Message: f.printer.Sprintf(i18n.ValidatorEmpty),
			Err:     status.NewValidationError("code", "empty"),
		}}
	}

	body, err := fetch.JSONBody(map[string]string{"code": code})
	if err != nil {
		return ValidatorResult{FlowResult: FlowResult{Message: f.printer.Sprintf(i18n.ValidatorFailed, err.Error()), Err: err}}
	}

	var reply models.CheckResult
	err = f.requester.JSON(ctx, f.backend.Endpoints().URL("/validator/check"), fetch.Options{
		Method:      http.MethodPost,
		Body:        body,
		Credentials: fetch.CredentialsInclude,
	}, &reply)
	if err != nil {
		f.monitor.TrackFlow(flowValidator, monitoring.OutcomeFailed)
		f.log.Warn().Err(err).Msg("ticket check failed")
		return ValidatorResult{FlowResult: FlowResult{
			Message: f.printer.Sprintf(i18n.ValidatorFailed, failureDetail(f.printer, err)),
			Err:     err,
		}}
	}

	outcome := monitoring.OutcomeOK
	var msg string
	switch {
	case !reply.Valid:
		outcome = monitoring.OutcomeRejected
		if strings.TrimSpace(reply.Reason) == "" {
			reply.Reason = f.printer.Sprintf(i18n.ValidatorUnknownReason)
		}
		msg = f.printer.Sprintf(i18n.ValidatorInvalid, reply.Reason)
	case reply.BuyerName != "":
		msg = f.printer.Sprintf(i18n.ValidatorValidBuyer, reply.TicketID, reply.EventID, reply.BuyerName)
	default:
		msg = f.printer.Sprintf(i18n.ValidatorValid, reply.TicketID, reply.EventID)
	}

	f.monitor.TrackFlow(flowValidator, outcome)
	f.log.Info().Bool("valid", reply.Valid).Str("ticket_id", reply.TicketID).Msg("ticket checked")
	_ = f.publisher.Publish(ctx, notify.Activity{Kind: notify.KindValidator, Outcome: outcome, EventID: reply.EventID, TicketID: reply.TicketID})

	return ValidatorResult{FlowResult: FlowResult{OK: true, Message: msg}, Ticket: &reply}
}
