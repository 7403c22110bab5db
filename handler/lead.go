package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	landing "github.com/phbpx/landing"
	"github.com/phbpx/landing/capture"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

const sessionCookie = "lead_session"

type LeadHandler struct {
	forms *capture.Forms
	log   *otelzap.SugaredLogger
}

func NewLeadHandler(forms *capture.Forms, log *otelzap.SugaredLogger) *LeadHandler {
	return &LeadHandler{
		forms: forms,
		log:   log,
	}
}

// Submit runs the capture flow for the visitor and redirects to the chat
// link it produced. A submit while the visitor's previous one is still in
// flight gets 204 and nothing else happens.
func (lh LeadHandler) Submit(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, err := decodeLead(r)
	if err != nil {
		lh.log.Ctx(ctx).Errorw("Submit", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	lead.WhatsApp = landing.FormatPhone(lead.WhatsApp)

	session := ensureSession(rw, r)

	res, err := lh.forms.Submit(ctx, session, lead)
	if err != nil {
		if errors.Is(err, landing.ErrSubmissionInFlight) {
			respond(ctx, rw, http.StatusNoContent, nil)
			return
		}
		lh.log.Ctx(ctx).Errorw("Submit", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	if res.Outcome == capture.Fallback {
		lh.log.Ctx(ctx).Warnw("Submit", "status", "fallback redirect", "error", res.Cause.Error())
	}

	if wantsJSON(r) {
		respond(ctx, rw, http.StatusOK, map[string]string{
			"redirect_url": res.RedirectURL,
		})
		return
	}
	http.Redirect(rw, r, res.RedirectURL, http.StatusSeeOther)
}

// ensureSession returns the visitor's session id, issuing a cookie when the
// request carries none.
func ensureSession(rw http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
