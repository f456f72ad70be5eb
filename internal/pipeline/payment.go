package pipeline

var cardMethods = map[string]struct{}{
	"CARTAO":            {},
	"CARTAO DE CREDITO": {},
	"CARTAO CREDITO":    {},
	"CREDITO":           {},
	"CARD":              {},
	"CREDIT CARD":       {},
	"CC":                {},
}

// IsCardPayment reports whether a payment method string denotes a card
// payment. Card quotations must pass through the payment-link stage; PIX
// and other methods go straight to payment confirmation.
func IsCardPayment(method string) bool {
	_, ok := cardMethods[Normalize(method)]
	return ok
}
