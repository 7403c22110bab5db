package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/phbpx/landing/capture"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

//go:embed templates/*.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// RevenueBrackets are the options of the revenue field.
var RevenueBrackets = []string{
	"Até R$ 10 mil por mês",
	"De R$ 10 mil a R$ 50 mil por mês",
	"De R$ 50 mil a R$ 100 mil por mês",
	"Acima de R$ 100 mil por mês",
}

type PageHandler struct {
	forms *capture.Forms
	log   *otelzap.SugaredLogger
}

func NewPageHandler(forms *capture.Forms, log *otelzap.SugaredLogger) *PageHandler {
	return &PageHandler{
		forms: forms,
		log:   log,
	}
}

type pageData struct {
	Control         capture.Control
	RevenueBrackets []string
}

// Index renders the landing page. The submit button reflects the visitor's
// in-flight submission, if any.
func (ph PageHandler) Index(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := ensureSession(rw, r)

	data := pageData{
		Control:         ph.forms.Control(session),
		RevenueBrackets: RevenueBrackets,
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		ph.log.Ctx(ctx).Errorw("Index", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	rw.Write(buf.Bytes())
}

func Health(rw http.ResponseWriter, r *http.Request) {
	respond(r.Context(), rw, http.StatusOK, map[string]string{"status": "ok"})
}
