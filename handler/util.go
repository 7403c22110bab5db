package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	landing "github.com/phbpx/landing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// decodeLead reads the four form fields from either a JSON body or a
// urlencoded form post.
func decodeLead(r *http.Request) (landing.Lead, error) {
	var lead landing.Lead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		rawJson, err := io.ReadAll(r.Body)
		if err != nil {
			return lead, err
		}
		err = json.Unmarshal(rawJson, &lead)
		return lead, err
	}

	if err := r.ParseForm(); err != nil {
		return lead, err
	}
	lead.Name = r.PostForm.Get("name")
	lead.WhatsApp = r.PostForm.Get("whatsapp")
	lead.Email = r.PostForm.Get("email")
	lead.RevenueBracket = r.PostForm.Get("revenue_bracket")
	return lead, nil
}

func wantsJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Accept"))
	return mediaType == "application/json"
}

func respond(ctx context.Context, rw http.ResponseWriter, status int, data interface{}) {
	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "handler.respond")
	span.SetAttributes(attribute.Int("http.status", status))
	defer span.End()

	if status == http.StatusNoContent || data == nil {
		rw.WriteHeader(status)
		return
	}

	rawJson, err := json.Marshal(data)
	if err != nil {
		panic("respond-json-marshal:" + err.Error())
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	rw.Write(rawJson)
}

func respondErr(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	respond(ctx, rw, status, map[string]string{
		"code":  http.StatusText(status),
		"error": err.Error(),
	})
}
