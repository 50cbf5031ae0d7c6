package payment

import "strings"

type declineReason struct {
	fragments []string
	es, en    string
}

// Ordered from most to least specific; the generic "declined" bucket is last.
var declineReasons = []declineReason{
	{[]string{"expired"}, "La tarjeta está vencida.", "The card has expired."},
	{[]string{"insufficient"}, "Fondos insuficientes.", "Insufficient funds."},
	{[]string{"invalid card", "card number", "invalid number"}, "El número de tarjeta no es válido.", "The card number is invalid."},
	{[]string{"cvc", "cvv", "security code"}, "El código de seguridad es incorrecto.", "The security code is incorrect."},
	{[]string{"stolen", "lost", "blacklist"}, "La tarjeta fue reportada como perdida o robada.", "The card was reported lost or stolen."},
	{[]string{"fraud"}, "La transacción fue rechazada por el sistema antifraude.", "The transaction was flagged as fraudulent."},
	{[]string{"limit"}, "La tarjeta superó su límite.", "The card limit was exceeded."},
	{[]string{"declined", "not authorized", "rejected", "denied"}, "La tarjeta fue rechazada.", "The card was declined."},
}

var statusDetailReasons = map[int]string{
	9:  "declined",
	11: "fraud",
	12: "blacklist",
}

const (
	genericDeclineEs = "No pudimos procesar tu pago. Intenta con otra tarjeta o contáctanos."
	genericDeclineEn = "We could not process your payment. Please try another card or contact us."
)

// DeclineMessage maps a gateway decline to a customer-facing message.
func DeclineMessage(t Transaction, lang string) string {
	msg := strings.ToLower(t.Message)
	if msg == "" {
		msg = statusDetailReasons[t.StatusDetail]
	}
	for _, r := range declineReasons {
		for _, f := range r.fragments {
			if msg != "" && strings.Contains(msg, f) {
				return pick(r.es, r.en, lang)
			}
		}
	}
	return pick(genericDeclineEs, genericDeclineEn, lang)
}

func pick(es, en, lang string) string {
	if lang == "en" {
		return en
	}
	return es
}
