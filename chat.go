package landing

import (
	"fmt"
	"net/url"
	"strings"
)

// ChatLink points at a chat-app deep link for a fixed phone number.
type ChatLink struct {
	Domain string
	Phone  string
}

// URL returns https://<domain>/<phone>?text=<message> with the message
// percent-encoded.
func (c ChatLink) URL(message string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     c.Domain,
		Path:     "/" + c.Phone,
		RawQuery: "text=" + EncodeMessage(message),
	}
	return u.String()
}

// EncodeMessage escapes message for a query value. Spaces become %20, which
// chat apps render reliably, instead of +.
func EncodeMessage(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

// SuccessMessage is the text sent after a lead is stored.
func SuccessMessage(name, revenueBracket string) string {
	lines := []string{
		"Olá! Acabei de preencher o formulário para receber meu *Diagnóstico Grátis*.",
		"",
		"*Meus dados:*",
		fmt.Sprintf("• Nome: *%s*", name),
		fmt.Sprintf("• Faturamento atual: %s", revenueBracket),
		"",
		"Gostaria de agendar minha análise gratuita e descobrir como escalar meu negócio!",
		"",
		"Qual o próximo passo?",
	}
	return strings.Join(lines, "\n")
}

// FallbackMessage is the text sent when the lead could not be stored.
func FallbackMessage(name string) string {
	return fmt.Sprintf("Olá, tentei aplicar pelo site mas deu erro. Me chamo %s.", name)
}
