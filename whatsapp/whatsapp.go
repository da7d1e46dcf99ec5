// Package whatsapp builds the order messages, share drafts and wa.me deep
// links. Everything here is a pure function over store state; nothing is
// mutated and nothing is sent.
package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cardapio-telegram/models"
)

const venueName = "Várzea Alegre FC"

// ErrCustomerNameRequired rejects a checkout submitted without a name.
var ErrCustomerNameRequired = errors.New("whatsapp: customer name is required")

// SanitizeNumber strips everything that is not a digit.
func SanitizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// encode percent-encodes text for the ?text= query parameter, using %20 for
// spaces the way messaging apps expect.
func encode(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Link composes the deep link that opens a WhatsApp composer pre-filled with
// text. An empty number yields a recipientless link (generic share: the user
// picks the contact).
func Link(number, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", SanitizeNumber(number), encode(text))
}

// ContactLink is the bare wa.me link to a number, without a message.
func ContactLink(number string) string {
	return "https://wa.me/" + SanitizeNumber(number)
}

// BuildOrder captures the cart into an order. The customer name is required;
// without it the checkout is rejected before anything is formatted or sent.
func BuildOrder(items []models.CartItem, customerName, tableNumber string) (models.Order, error) {
	if strings.TrimSpace(customerName) == "" {
		return models.Order{}, ErrCustomerNameRequired
	}
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return models.Order{
		Items:        items,
		Total:        total,
		CustomerName: strings.TrimSpace(customerName),
		TableNumber:  strings.TrimSpace(tableNumber),
	}, nil
}

// OrderMessage renders the order as the text block sent to the venue.
func OrderMessage(o models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Novo Pedido - %s*\n\n", venueName)
	fmt.Fprintf(&b, "*Cliente:* %s\n", o.CustomerName)
	if o.TableNumber != "" {
		fmt.Fprintf(&b, "*Mesa:* %s\n", o.TableNumber)
	}
	b.WriteString("---------------------------\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%dx %s - R$ %.2f\n", it.Quantity, it.Name, it.Subtotal())
	}
	b.WriteString("---------------------------\n")
	fmt.Fprintf(&b, "*Total: R$ %.2f*", o.Total)
	return b.String()
}

// OrderLink is the deep link that sends the order to the venue's number.
func OrderLink(o models.Order, settings models.AppSettings) string {
	return Link(settings.WhatsappNumber, OrderMessage(o))
}

// AppShareDraft builds the share payload for the whole menu. With a share
// URL configured the text is short and the URL rides along; without one the
// text is a self-contained digital card pointing at the venue's WhatsApp.
func AppShareDraft(settings models.AppSettings) models.ShareDraft {
	shareURL := strings.TrimSpace(settings.ShareUrl)
	if shareURL != "" {
		return models.ShareDraft{
			Title: "Várzea Alegre Futebol Clube",
			Text:  "⚽ *Várzea Alegre Futebol Clube*\nConfira nosso Cardápio Digital Oficial e faça seu pedido online!",
			URL:   shareURL,
		}
	}
	text := "⚽ *Várzea Alegre Futebol Clube*\n\n" +
		"🔥 *Confira nosso cardápio completo!*\n" +
		"🍔 Lanches\n🍺 Bebidas\n🥓 Petiscos\n\n" +
		"📲 *Faça seu pedido pelo WhatsApp:*\n" +
		ContactLink(settings.WhatsappNumber)
	return models.ShareDraft{Title: "Várzea Alegre Futebol Clube", Text: text}
}

// ItemShareDraft builds the share payload for a single menu item.
func ItemShareDraft(item models.MenuItem, settings models.AppSettings) models.ShareDraft {
	base := fmt.Sprintf("😋 *Desejo do dia:*\n\n*%s* - R$ %.2f\n_%s_", item.Name, item.Price, item.Description)
	shareURL := strings.TrimSpace(settings.ShareUrl)
	if shareURL != "" {
		return models.ShareDraft{
			Title: "VAFC - " + item.Name,
			Text:  base + "\n\nPeça aqui:",
			URL:   shareURL,
		}
	}
	orderLink := fmt.Sprintf("%s?text=%s", ContactLink(settings.WhatsappNumber), encode("Olá, quero pedir o "+item.Name))
	return models.ShareDraft{
		Title: "VAFC - " + item.Name,
		Text:  base + "\n\n📲 *Peça agora pelo WhatsApp:*\n" + orderLink,
	}
}

// ShareText flattens a draft into one string: text alone, or text plus URL.
func ShareText(d models.ShareDraft) string {
	if d.URL != "" {
		return d.Text + " " + d.URL
	}
	return d.Text
}

// ShareLink opens a recipientless WhatsApp composer with the draft text.
func ShareLink(d models.ShareDraft) string {
	return Link("", ShareText(d))
}
