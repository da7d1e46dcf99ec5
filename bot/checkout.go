package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardapio-telegram/whatsapp"
)

type checkoutState struct {
	Step         string // "name", "table"
	CustomerName string
}

func (b *Bot) cartText(chatID int64) string {
	c := b.cart(chatID)
	if c.Empty() {
		return "Seu carrinho está vazio.\nAdicione alguns itens deliciosos!"
	}
	var s strings.Builder
	s.WriteString("🛒 Seu Pedido\n\n")
	for _, it := range c.Items() {
		fmt.Fprintf(&s, "%dx %s - R$ %.2f\n", it.Quantity, it.Name, it.Subtotal())
	}
	fmt.Fprintf(&s, "\nTotal: R$ %.2f", c.Total())
	return s.String()
}

func (b *Bot) cartKeyboard(chatID int64) *tgbotapi.InlineKeyboardMarkup {
	c := b.cart(chatID)
	if c.Empty() {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range c.Items() {
		name := it.Name
		if r := []rune(name); len(r) > 20 {
			name = string(r[:20]) + "…"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", "cart_dec:"+it.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d · %s", it.Quantity, name), "noop"),
			tgbotapi.NewInlineKeyboardButtonData("➕", "cart_inc:"+it.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", "cart_del:"+it.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🧹 Limpar", "cart_clear"),
		tgbotapi.NewInlineKeyboardButtonData("✅ Finalizar pedido", "checkout_start"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func (b *Bot) showCart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, b.cartText(chatID))
	if kb := b.cartKeyboard(chatID); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send cart: %v", err)
	}
}

// refreshCart edits the cart message in place after a line mutation.
// "message is not modified" is expected when a clamped decrement changed
// nothing.
func (b *Bot) refreshCart(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, b.cartText(chatID))
	edit.ReplyMarkup = b.cartKeyboard(chatID)
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "not modified") {
			return
		}
		log.Printf("refresh cart: %v", err)
	}
}

func (b *Bot) startCheckout(chatID int64) {
	if b.cart(chatID).Empty() {
		b.send(chatID, "Seu carrinho está vazio.")
		return
	}
	b.checkoutMu.Lock()
	b.checkout[chatID] = &checkoutState{Step: "name"}
	b.checkoutMu.Unlock()
	b.send(chatID, "Para finalizar, digite seu nome:")
}

// handleCheckoutMessage consumes text while a checkout is in progress.
// Returns false when no checkout is active for this chat.
func (b *Bot) handleCheckoutMessage(chatID int64, text string) bool {
	b.checkoutMu.RLock()
	st := b.checkout[chatID]
	b.checkoutMu.RUnlock()
	if st == nil {
		return false
	}

	switch st.Step {
	case "name":
		if strings.TrimSpace(text) == "" {
			b.send(chatID, "Por favor, digite seu nome.")
			return true
		}
		st.CustomerName = strings.TrimSpace(text)
		st.Step = "table"
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Sem mesa", "checkout_skip_table"),
			),
		)
		b.sendWithInline(chatID, "Qual o número da sua mesa? (opcional)", kb)
		return true
	case "table":
		b.finishCheckout(chatID, text)
		return true
	}
	return false
}

// finishCheckout builds the order, sends the WhatsApp deep link and only
// then clears the cart. If Telegram rejects the message the cart is left
// intact so the order is never lost unsent.
func (b *Bot) finishCheckout(chatID int64, tableNumber string) {
	b.checkoutMu.RLock()
	st := b.checkout[chatID]
	b.checkoutMu.RUnlock()
	if st == nil {
		return
	}

	cart := b.cart(chatID)
	order, err := whatsapp.BuildOrder(cart.Items(), st.CustomerName, tableNumber)
	if err != nil {
		if errors.Is(err, whatsapp.ErrCustomerNameRequired) {
			st.Step = "name"
			b.send(chatID, "Por favor, digite seu nome.")
			return
		}
		log.Printf("build order: %v", err)
		b.send(chatID, "Não foi possível montar o pedido. Tente novamente.")
		return
	}

	link := whatsapp.OrderLink(order, b.store.Settings())
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📲 Enviar Pedido via WhatsApp", link),
		),
	)
	msg := tgbotapi.NewMessage(chatID,
		whatsapp.OrderMessage(order)+"\n\nToque no botão para enviar seu pedido:")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send order link: %v", err)
		b.send(chatID, "⚠️ Não consegui gerar o link do pedido. Seu carrinho foi mantido, tente novamente.")
		return
	}

	cart.Clear()
	b.checkoutMu.Lock()
	delete(b.checkout, chatID)
	b.checkoutMu.Unlock()
	b.send(chatID, "Pedido pronto para envio! Obrigado, "+order.CustomerName+" 🍀")
}
