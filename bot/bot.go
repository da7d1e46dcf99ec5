// Package bot is the Telegram surface over the menu store: customers browse
// the catalog and build a cart, checkout hands them a WhatsApp deep link
// with the formatted order, and a password-gated admin panel manages the
// catalog and settings.
package bot

import (
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardapio-telegram/config"
	"cardapio-telegram/describe"
	"cardapio-telegram/imaging"
	"cardapio-telegram/models"
	"cardapio-telegram/store"
	"cardapio-telegram/whatsapp"
)

const (
	btnCart    = "🛒 Carrinho"
	btnShare   = "📣 Divulgar"
	btnAllCats = "🍽 " + models.CategoryAll
)

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	store    *store.Store
	enhancer describe.Enhancer

	carts   map[int64]*store.Cart
	cartsMu sync.RWMutex

	checkout   map[int64]*checkoutState
	checkoutMu sync.RWMutex

	// admin state lives in admin.go
	adminAuthed  map[int64]bool
	adminLogin   map[int64]bool // waiting for the password
	adminForm    map[int64]*itemForm
	adminSetting map[int64]string // which settings field is being typed
	adminMu      sync.RWMutex
}

func New(cfg *config.Config, st *store.Store, enhancer describe.Enhancer) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:          api,
		cfg:          cfg,
		store:        st,
		enhancer:     enhancer,
		carts:        make(map[int64]*store.Cart),
		checkout:     make(map[int64]*checkoutState),
		adminAuthed:  make(map[int64]bool),
		adminLogin:   make(map[int64]bool),
		adminForm:    make(map[int64]*itemForm),
		adminSetting: make(map[int64]string),
	}, nil
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Cardápio"},
			{Command: "carrinho", Description: "Meu pedido"},
			{Command: "compartilhar", Description: "Divulgar o cardápio"},
			{Command: "admin", Description: "Painel administrativo"},
			{Command: "cancel", Description: "Cancelar a operação atual"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

// Start runs the update loop. Updates are handled sequentially on this
// goroutine, so store mutations and their persistence writes keep the order
// the user produced them in.
func (b *Bot) Start() {
	_ = b.setBotCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if text == "/cancel" {
		b.cancelFlows(chatID)
		return
	}

	switch text {
	case "/start", "/menu":
		b.handleStart(chatID)
		return
	case "/carrinho", btnCart:
		b.showCart(chatID)
		return
	case "/compartilhar", btnShare:
		b.shareApp(chatID)
		return
	case "/admin":
		b.handleAdminCommand(chatID)
		return
	}

	// Admin flows consume messages first: password, item form, settings.
	if b.handleAdminMessage(msg, chatID, text) {
		return
	}

	// Checkout flow: customer name, then table.
	if b.handleCheckoutMessage(chatID, text) {
		return
	}

	if text == btnAllCats {
		b.showCategory(chatID, models.CategoryAll)
		return
	}
	for _, cat := range models.Categories {
		if text == cat {
			b.showCategory(chatID, cat)
			return
		}
	}

	// Anything else is a search over the whole catalog.
	if text != "" {
		b.showSearch(chatID, text)
	}
}

func (b *Bot) handleStart(chatID int64) {
	rows := [][]tgbotapi.KeyboardButton{
		{tgbotapi.NewKeyboardButton(btnAllCats)},
	}
	var row []tgbotapi.KeyboardButton
	for _, cat := range models.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(cat))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(btnCart),
		tgbotapi.NewKeyboardButton(btnShare),
	})

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID,
		"⚽ Bem-vindo ao Várzea Alegre FC!\n\n"+
			"Escolha uma categoria, ou digite o que você deseja comer hoje para buscar no cardápio.")
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send start: %v", err)
	}
}

func (b *Bot) cancelFlows(chatID int64) {
	b.checkoutMu.Lock()
	delete(b.checkout, chatID)
	b.checkoutMu.Unlock()

	b.adminMu.Lock()
	delete(b.adminForm, chatID)
	delete(b.adminLogin, chatID)
	delete(b.adminSetting, chatID)
	b.adminMu.Unlock()

	b.send(chatID, "Operação cancelada.")
}

// cart returns the chat's cart, creating it on first use. Carts live in
// memory for the session only.
func (b *Bot) cart(chatID int64) *store.Cart {
	b.cartsMu.Lock()
	defer b.cartsMu.Unlock()
	c, ok := b.carts[chatID]
	if !ok {
		c = store.NewCart()
		b.carts[chatID] = c
	}
	return c
}

// isAdmin reports whether the chat may use the admin surface: either the
// pre-authorized ADMIN_ID chat or a session opened through /admin + password.
func (b *Bot) isAdmin(chatID int64) bool {
	if b.cfg.Telegram.AdminID != 0 && chatID == b.cfg.Telegram.AdminID {
		return true
	}
	b.adminMu.RLock()
	defer b.adminMu.RUnlock()
	return b.adminAuthed[chatID]
}

// --- catalog views ---

func (b *Bot) showCategory(chatID int64, category string) {
	items := b.store.FilterCatalog(category, "", b.isAdmin(chatID))
	if len(items) == 0 {
		b.send(chatID, "Nenhum item encontrado nesta categoria.")
		return
	}
	for _, it := range items {
		b.sendItemCard(chatID, it)
	}
}

func (b *Bot) showSearch(chatID int64, query string) {
	items := b.store.FilterCatalog(models.CategoryAll, query, b.isAdmin(chatID))
	if len(items) == 0 {
		b.send(chatID, "Nenhum item encontrado. Tente buscar por outro termo ou categoria.")
		return
	}
	for _, it := range items {
		b.sendItemCard(chatID, it)
	}
}

func itemCaption(it models.MenuItem) string {
	var s strings.Builder
	fmt.Fprintf(&s, "*%s*  ·  %s\n", it.Name, it.Category)
	if it.Description != "" {
		fmt.Fprintf(&s, "_%s_\n", it.Description)
	}
	fmt.Fprintf(&s, "\n💰 R$ %.2f", it.Price)
	if !it.IsAvailable {
		s.WriteString("\n\n🚫 *Esgotado*")
	}
	return s.String()
}

func itemKeyboard(it models.MenuItem, admin bool) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	// The add button is the availability gate: Cart.Add itself does not
	// re-check, which lets a logged-in admin test unavailable items.
	if it.IsAvailable || admin {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➕ Adicionar", "cart_add:"+it.ID))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("📤 Compartilhar", "share_item:"+it.ID))
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

func (b *Bot) sendItemCard(chatID int64, it models.MenuItem) {
	kb := itemKeyboard(it, b.isAdmin(chatID))

	if it.ImageUrl != "" {
		if photo, ok := photoFile(it); ok {
			msg := tgbotapi.NewPhoto(chatID, photo)
			msg.Caption = itemCaption(it)
			msg.ParseMode = tgbotapi.ModeMarkdown
			msg.ReplyMarkup = kb
			if _, err := b.api.Send(msg); err == nil {
				return
			}
			// Photo failed (bad URL, oversized payload): fall back to text.
			log.Printf("send item photo %s failed, sending text card", it.ID)
		}
	}

	msg := tgbotapi.NewMessage(chatID, itemCaption(it))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send item card %s: %v", it.ID, err)
	}
}

// photoFile converts the stored image (remote URL or data URI) into a
// telegram upload.
func photoFile(it models.MenuItem) (tgbotapi.RequestFileData, bool) {
	if imaging.IsDataURI(it.ImageUrl) {
		_, payload, ok := strings.Cut(it.ImageUrl, ",")
		if !ok {
			return nil, false
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			log.Printf("item %s: bad image data URI: %v", it.ID, err)
			return nil, false
		}
		return tgbotapi.FileBytes{Name: "item.jpg", Bytes: raw}, true
	}
	return tgbotapi.FileURL(it.ImageUrl), true
}

// --- sharing ---

func (b *Bot) shareApp(chatID int64) {
	draft := whatsapp.AppShareDraft(b.store.Settings())
	b.sendShareDraft(chatID, draft)
}

func (b *Bot) shareItem(chatID int64, itemID string) {
	it, ok := b.store.Item(itemID)
	if !ok {
		return
	}
	draft := whatsapp.ItemShareDraft(it, b.store.Settings())
	b.sendShareDraft(chatID, draft)
}

func (b *Bot) sendShareDraft(chatID int64, draft models.ShareDraft) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Enviar no WhatsApp", whatsapp.ShareLink(draft)),
		),
	)
	text := draft.Title + "\n\n" + whatsapp.ShareText(draft) +
		"\n\nCopie a mensagem acima ou toque no botão para compartilhar."
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send share draft: %v", err)
	}
}

// --- plumbing ---

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send error: %v", err)
	}
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send error: %v", err)
	}
}

// answerCallback acknowledges the callback; Telegram shows text as a toast.
func (b *Bot) answerCallback(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		log.Printf("answerCallback: %v", err)
	}
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answerCallback(cq, "")
		return
	}
	chatID := cq.Message.Chat.ID
	data := cq.Data

	action, arg, _ := strings.Cut(data, ":")
	switch action {
	case "cart_add":
		it, ok := b.store.Item(arg)
		if !ok {
			// Item deleted since the card was sent: ignore quietly.
			b.answerCallback(cq, "Este item não está mais no cardápio.")
			return
		}
		b.cart(chatID).Add(it)
		b.answerCallback(cq, fmt.Sprintf("%s no carrinho 🛒", it.Name))
	case "cart_inc":
		b.cart(chatID).UpdateQuantity(arg, 1)
		b.answerCallback(cq, "")
		b.refreshCart(chatID, cq.Message.MessageID)
	case "cart_dec":
		b.cart(chatID).UpdateQuantity(arg, -1)
		b.answerCallback(cq, "")
		b.refreshCart(chatID, cq.Message.MessageID)
	case "cart_del":
		b.cart(chatID).Remove(arg)
		b.answerCallback(cq, "Item removido.")
		b.refreshCart(chatID, cq.Message.MessageID)
	case "cart_clear":
		b.cart(chatID).Clear()
		b.answerCallback(cq, "Carrinho esvaziado.")
		b.refreshCart(chatID, cq.Message.MessageID)
	case "checkout_start":
		b.answerCallback(cq, "")
		b.startCheckout(chatID)
	case "checkout_skip_table":
		b.answerCallback(cq, "")
		b.finishCheckout(chatID, "")
	case "share_item":
		b.answerCallback(cq, "")
		b.shareItem(chatID, arg)
	default:
		if b.handleAdminCallback(cq, chatID, action, arg) {
			return
		}
		b.answerCallback(cq, "")
	}
}
