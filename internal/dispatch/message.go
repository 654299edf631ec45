// Package dispatch turns a cart and a completed checkout draft into the
// order message and the chat deep link that hands it to the shop.
package dispatch

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Settings describes the shop receiving the orders
type Settings struct {
	Name           string
	WhatsAppNumber string
	ChatBaseURL    string
	Currency       string
	Locale         language.Tag
}

// NewSettings builds settings, parsing locale and falling back to English
func NewSettings(name, number, baseURL, currency, locale string) Settings {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	if currency == "" {
		currency = "$"
	}
	return Settings{
		Name:           name,
		WhatsAppNumber: number,
		ChatBaseURL:    strings.TrimRight(baseURL, "/"),
		Currency:       currency,
		Locale:         tag,
	}
}

// FormatPrice renders an amount with the locale's thousands separator
func (s Settings) FormatPrice(amount int64) string {
	return s.Currency + message.NewPrinter(s.Locale).Sprintf("%d", amount)
}

// FormatMessage builds the order message sent to the shop
func FormatMessage(s Settings, items []models.CartItem, d *checkout.Draft) string {
	var b strings.Builder

	b.WriteString("🍔 *NUEVO PEDIDO - " + s.Name + "*\n\n")
	if d.CustomerName != "" {
		b.WriteString("👤 *Cliente:* " + d.CustomerName + "\n\n")
	}
	if d.CustomerAddress != "" {
		b.WriteString("📍 *Dirección:* " + d.CustomerAddress + "\n")
		if d.CustomerBetweenStreets != "" {
			b.WriteString("🛣️ *Entre calles:* " + d.CustomerBetweenStreets + "\n")
		}
		b.WriteString("\n")
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, formatItem(s, it))
	}
	b.WriteString("📦 *Pedido:*\n" + strings.Join(lines, "\n\n") + "\n\n")
	b.WriteString("💰 *TOTAL: " + s.FormatPrice(cart.Total(items)) + "*\n\n")
	b.WriteString("🚚 *Entrega:* Delivery\n")
	b.WriteString("💳 *Pago:* " + paymentLabel(d.PaymentMethod) + "\n")

	return b.String()
}

func formatItem(s Settings, it models.CartItem) string {
	var b strings.Builder
	b.WriteString("• *" + it.Name + "* x" + strconv.Itoa(it.Quantity))

	if len(it.SelectedExtras) > 0 {
		parts := make([]string, len(it.SelectedExtras))
		for i, e := range it.SelectedExtras {
			parts[i] = e.Name + " (+" + s.FormatPrice(e.Price) + ")"
		}
		b.WriteString("\n  Extras: " + strings.Join(parts, ", "))
	}

	for i, cb := range it.ComboBurgers {
		b.WriteString("\n  🍔 " + strconv.Itoa(i+1) + ". " + cb.Burger.Name)
		if len(cb.Extras) > 0 {
			names := make([]string, len(cb.Extras))
			for j, e := range cb.Extras {
				names[j] = e.Name
			}
			b.WriteString(" + " + strings.Join(names, ", "))
		}
		if cb.Notes != "" {
			b.WriteString("\n    Obs: " + cb.Notes)
		}
	}

	if it.Notes != "" {
		b.WriteString("\n  📝 Obs: " + it.Notes)
	}
	b.WriteString("\n  Subtotal: " + s.FormatPrice(cart.LineTotal(it)))
	return b.String()
}

func paymentLabel(method string) string {
	switch method {
	case models.PaymentCash:
		return "Efectivo"
	case models.PaymentTransfer:
		return "Transferencia"
	default:
		return "Otro"
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// keeps the characters encodeURIComponent leaves alone
var uriUnreserved = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// Encode percent-encodes a message like encodeURIComponent: spaces as %20
// and !'()* left as is
func Encode(msg string) string {
	return uriUnreserved.Replace(url.QueryEscape(msg))
}

// Link builds <base>/<digits of phone>?text=<encoded message>
func Link(baseURL, phone, msg string) string {
	return strings.TrimRight(baseURL, "/") + "/" + nonDigits.ReplaceAllString(phone, "") + "?text=" + Encode(msg)
}
