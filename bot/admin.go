package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardapio-telegram/describe"
	"cardapio-telegram/imaging"
	"cardapio-telegram/models"
	"cardapio-telegram/store"
)

// itemForm is the step machine behind adding or editing a menu item:
// name -> price -> category -> description -> photo -> availability -> save.
type itemForm struct {
	Step    string
	Editing bool
	Item    models.MenuItem // draft; ID kept when editing

	// Pending flags disable re-invoking the two asynchronous calls until
	// the in-flight one settles.
	EnhancePending bool
	PhotoPending   bool
}

func (b *Bot) handleAdminCommand(chatID int64) {
	if b.isAdmin(chatID) {
		b.sendAdminPanel(chatID)
		return
	}
	if b.cfg.Telegram.Login == "" {
		b.send(chatID, "O painel administrativo está desativado (LOGIN não configurado).")
		return
	}
	b.adminMu.Lock()
	b.adminLogin[chatID] = true
	b.adminMu.Unlock()
	b.send(chatID, "🔒 Digite a senha do painel administrativo:")
}

func (b *Bot) sendAdminPanel(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Itens", "adm_items"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Novo item", "adm_new"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Configurações", "adm_settings"),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Sair", "adm_logout"),
		),
	)
	b.sendWithInline(chatID, "🛠 Painel Administrativo — Várzea Alegre FC", kb)
}

// handleAdminMessage consumes text/photo messages belonging to admin flows.
// Returns false when the message is not for the admin surface.
func (b *Bot) handleAdminMessage(msg *tgbotapi.Message, chatID int64, text string) bool {
	b.adminMu.RLock()
	waitingLogin := b.adminLogin[chatID]
	settingField := b.adminSetting[chatID]
	form := b.adminForm[chatID]
	b.adminMu.RUnlock()

	if waitingLogin {
		b.adminMu.Lock()
		delete(b.adminLogin, chatID)
		b.adminMu.Unlock()
		if text == b.cfg.Telegram.Login {
			b.adminMu.Lock()
			b.adminAuthed[chatID] = true
			b.adminMu.Unlock()
			b.send(chatID, "✅ Acesso liberado.")
			b.sendAdminPanel(chatID)
		} else {
			b.send(chatID, "Senha incorreta. Use /admin para tentar de novo.")
		}
		return true
	}

	if !b.isAdmin(chatID) {
		return false
	}

	if settingField != "" {
		b.applySetting(chatID, settingField, text)
		return true
	}

	if form != nil {
		b.handleFormInput(msg, chatID, form, text)
		return true
	}
	return false
}

func (b *Bot) applySetting(chatID int64, field, text string) {
	b.adminMu.Lock()
	delete(b.adminSetting, chatID)
	b.adminMu.Unlock()

	ctx := context.Background()
	var err error
	switch field {
	case "phone":
		v := strings.TrimSpace(text)
		if v == "" {
			b.send(chatID, "Número vazio; configuração mantida.")
			return
		}
		err = b.store.UpdateSettings(ctx, models.SettingsPatch{WhatsappNumber: &v})
	case "url":
		v := strings.TrimSpace(text)
		if v == "-" {
			v = ""
		}
		err = b.store.UpdateSettings(ctx, models.SettingsPatch{ShareUrl: &v})
	}
	b.warnIfUnpersisted(chatID, err)
	if err == nil || errors.Is(err, store.ErrPersist) {
		b.send(chatID, "✅ Configuração atualizada.")
	}
	b.sendAdminPanel(chatID)
}

// warnIfUnpersisted surfaces a storage write failure without undoing the
// change: the in-memory state stays live, only the save is at risk.
func (b *Bot) warnIfUnpersisted(chatID int64, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, store.ErrPersist) {
		log.Printf("persist: %v", err)
		b.send(chatID, "⚠️ Atenção: a alteração está ativa, mas não pôde ser salva (memória cheia?). Remova fotos ou itens antigos.")
		return
	}
	log.Printf("admin: %v", err)
	b.send(chatID, "Erro: "+err.Error())
}

// --- item list & per-item actions ---

func (b *Bot) sendAdminItems(chatID int64) {
	items := b.store.FilterCatalog(models.CategoryAll, "", true)
	if len(items) == 0 {
		b.send(chatID, "O cardápio está vazio. Use ➕ Novo item para começar.")
		return
	}
	for _, it := range items {
		status := "✅"
		if !it.IsAvailable {
			status = "🚫"
		}
		text := fmt.Sprintf("%s %s · %s · R$ %.2f", status, it.Name, it.Category, it.Price)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Editar", "adm_edit:"+it.ID),
				tgbotapi.NewInlineKeyboardButtonData("🔁 Disponibilidade", "adm_toggle:"+it.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Excluir", "adm_del:"+it.ID),
			),
		)
		b.sendWithInline(chatID, text, kb)
	}
}

func (b *Bot) toggleAvailability(chatID int64, id string) {
	it, ok := b.store.Item(id)
	if !ok {
		return
	}
	it.IsAvailable = !it.IsAvailable
	_, err := b.store.UpsertMenuItem(context.Background(), it)
	b.warnIfUnpersisted(chatID, err)
	if err == nil || errors.Is(err, store.ErrPersist) {
		if it.IsAvailable {
			b.send(chatID, it.Name+" marcado como disponível ✅")
		} else {
			b.send(chatID, it.Name+" marcado como esgotado 🚫")
		}
	}
}

func (b *Bot) confirmDelete(chatID int64, id string) {
	it, ok := b.store.Item(id)
	if !ok {
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Excluir", "adm_del_yes:"+id),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Cancelar", "adm_del_no"),
		),
	)
	b.sendWithInline(chatID, fmt.Sprintf("Excluir «%s» do cardápio?", it.Name), kb)
}

// --- add/edit form ---

func (b *Bot) startItemForm(chatID int64, editID string) {
	form := &itemForm{Step: "name"}
	if editID != "" {
		it, ok := b.store.Item(editID)
		if !ok {
			b.send(chatID, "Este item não está mais no cardápio.")
			return
		}
		form.Editing = true
		form.Item = it
	} else {
		form.Item.Category = models.CategoryLanches
		form.Item.IsAvailable = true
	}

	editing, name := form.Editing, form.Item.Name

	b.adminMu.Lock()
	b.adminForm[chatID] = form
	b.adminMu.Unlock()

	if editing {
		b.sendWithInline(chatID,
			fmt.Sprintf("Editando «%s».\n\nDigite o novo nome:", name),
			keepCurrentKeyboard())
	} else {
		b.send(chatID, "Digite o nome do novo item:\n\n(/cancel para desistir)")
	}
}

func keepCurrentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Manter atual", "adm_keep"),
		),
	)
}

func categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range models.Categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(cat, "adm_cat:"+cat),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func descriptionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✨ Gerar com IA", "adm_ai"),
			tgbotapi.NewInlineKeyboardButtonData("Pular", "adm_skip_desc"),
		),
	)
}

func photoKeyboard(hasPhoto bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Pular", "adm_skip_photo"),
	}
	if hasPhoto {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Remover foto", "adm_clear_photo"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

func availabilityKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Disponível", "adm_avail:yes"),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Esgotado", "adm_avail:no"),
		),
	)
}

func (b *Bot) promptStep(chatID int64, form *itemForm) {
	// The photo and enhance goroutines mutate the form under adminMu, so
	// take a snapshot instead of reading fields piecemeal.
	b.adminMu.RLock()
	snap := *form
	b.adminMu.RUnlock()

	switch snap.Step {
	case "name":
		if snap.Editing {
			b.sendWithInline(chatID, fmt.Sprintf("Nome atual: %s\nDigite o novo nome:", snap.Item.Name), keepCurrentKeyboard())
		} else {
			b.send(chatID, "Digite o nome do item:")
		}
	case "price":
		if snap.Editing {
			b.sendWithInline(chatID, fmt.Sprintf("Preço atual: R$ %.2f\nDigite o novo preço:", snap.Item.Price), keepCurrentKeyboard())
		} else {
			b.send(chatID, "Digite o preço (ex: 12,50):")
		}
	case "category":
		b.sendWithInline(chatID, "Escolha a categoria:", categoryKeyboard())
	case "description":
		b.sendWithInline(chatID,
			"Digite a descrição (ou os ingredientes e toque em ✨ para a IA escrever por você):",
			descriptionKeyboard())
	case "photo":
		b.sendWithInline(chatID, "Envie uma foto do item:", photoKeyboard(snap.Item.ImageUrl != ""))
	case "availability":
		b.sendWithInline(chatID, "O item está disponível?", availabilityKeyboard())
	}
}

func (b *Bot) handleFormInput(msg *tgbotapi.Message, chatID int64, form *itemForm, text string) {
	b.adminMu.RLock()
	step := form.Step
	b.adminMu.RUnlock()

	switch step {
	case "name":
		name := strings.TrimSpace(text)
		if name == "" {
			b.send(chatID, "O nome não pode ser vazio.")
			return
		}
		b.adminMu.Lock()
		form.Item.Name = name
		form.Step = "price"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "price":
		price, err := parsePrice(text)
		if err != nil {
			b.send(chatID, "Preço inválido. Digite um número, ex: 12,50")
			return
		}
		b.adminMu.Lock()
		form.Item.Price = price
		form.Step = "category"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "description":
		b.adminMu.Lock()
		if form.EnhancePending {
			b.adminMu.Unlock()
			b.send(chatID, "Aguarde, a descrição está sendo gerada…")
			return
		}
		form.Item.Description = strings.TrimSpace(text)
		form.Step = "photo"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "photo":
		if len(msg.Photo) > 0 {
			b.handleFormPhoto(chatID, form, msg.Photo)
			return
		}
		b.adminMu.RLock()
		hasPhoto := form.Item.ImageUrl != ""
		b.adminMu.RUnlock()
		b.sendWithInline(chatID, "Envie uma foto, ou toque em Pular.", photoKeyboard(hasPhoto))
	case "availability":
		b.sendWithInline(chatID, "Escolha uma opção:", availabilityKeyboard())
	}
}

func parsePrice(text string) (float64, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "R$"))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price")
	}
	return price, nil
}

// claimPhoto marks a photo upload as in flight. The check-and-set is atomic
// so a burst of uploads yields exactly one download goroutine.
func (b *Bot) claimPhoto(form *itemForm) bool {
	b.adminMu.Lock()
	defer b.adminMu.Unlock()
	if form.PhotoPending {
		return false
	}
	form.PhotoPending = true
	return true
}

// finishPhoto stores the compressed image on the form. Reports false when the
// form was dismissed while the photo was in flight; the result is dropped and
// whatever form replaced it is left untouched.
func (b *Bot) finishPhoto(chatID int64, form *itemForm, dataURI string, err error) bool {
	b.adminMu.Lock()
	defer b.adminMu.Unlock()
	if b.adminForm[chatID] != form {
		return false
	}
	form.PhotoPending = false
	if err == nil {
		form.Item.ImageUrl = dataURI
		form.Step = "availability"
	}
	return true
}

// handleFormPhoto downloads the largest photo size, compresses it and stores
// it inline. Runs async; the pending flag blocks a second upload until this
// one settles.
func (b *Bot) handleFormPhoto(chatID int64, form *itemForm, sizes []tgbotapi.PhotoSize) {
	if !b.claimPhoto(form) {
		b.send(chatID, "Aguarde, a foto anterior ainda está sendo processada…")
		return
	}
	fileID := sizes[len(sizes)-1].FileID
	b.send(chatID, "Processando a foto…")

	go func() {
		dataURI, err := b.fetchAndCompress(fileID)
		if !b.finishPhoto(chatID, form, dataURI, err) {
			return
		}
		if err != nil {
			log.Printf("photo compress: %v", err)
			b.send(chatID, "Erro ao processar a imagem. Tente outra.")
			return
		}
		b.send(chatID, "📷 Foto salva.")
		b.promptStep(chatID, form)
	}()
}

func (b *Bot) fetchAndCompress(fileID string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	return imaging.Compress(resp.Body)
}

// claimEnhance marks a description generation as in flight and snapshots the
// inputs the goroutine needs, so it never touches the form unlocked.
func (b *Bot) claimEnhance(form *itemForm) (name, notes string, ok bool) {
	b.adminMu.Lock()
	defer b.adminMu.Unlock()
	if form.Item.Name == "" || form.EnhancePending {
		return "", "", false
	}
	form.EnhancePending = true
	notes = form.Item.Description
	if notes == "" {
		notes = "ingredientes padrões"
	}
	return form.Item.Name, notes, true
}

// finishEnhance stores the generated text. Reports false when the form was
// dismissed while the call was in flight.
func (b *Bot) finishEnhance(chatID int64, form *itemForm, text string) bool {
	b.adminMu.Lock()
	defer b.adminMu.Unlock()
	if b.adminForm[chatID] != form {
		return false
	}
	form.EnhancePending = false
	form.Item.Description = text
	form.Step = "photo"
	return true
}

// generateDescription calls the enhancer off the update loop. Failure falls
// back to the deterministic template; either way the admin can still edit
// the text before saving.
func (b *Bot) generateDescription(chatID int64, form *itemForm) {
	name, notes, ok := b.claimEnhance(form)
	if !ok {
		b.send(chatID, "Defina o nome do item primeiro, ou aguarde a descrição em andamento.")
		return
	}
	b.send(chatID, "✨ Gerando descrição…")

	go func() {
		text, err := b.enhancer.Enhance(context.Background(), name, notes)
		if err != nil {
			log.Printf("enhance: %v", err)
			text = describe.Fallback(name, notes)
		}
		if !b.finishEnhance(chatID, form, text) {
			return
		}
		b.send(chatID, "📝 "+text)
		b.promptStep(chatID, form)
	}()
}

func (b *Bot) saveForm(chatID int64, form *itemForm) {
	b.adminMu.Lock()
	delete(b.adminForm, chatID)
	item := form.Item
	editing := form.Editing
	b.adminMu.Unlock()

	saved, err := b.store.UpsertMenuItem(context.Background(), item)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		b.send(chatID, "Não foi possível salvar o item: "+err.Error())
		return
	}
	b.warnIfUnpersisted(chatID, err)
	if editing {
		b.send(chatID, fmt.Sprintf("✅ «%s» atualizado.", saved.Name))
	} else {
		b.send(chatID, fmt.Sprintf("✅ «%s» adicionado ao cardápio.", saved.Name))
	}
	b.sendAdminPanel(chatID)
}

// handleAdminCallback routes adm_* callbacks. Returns false for callbacks
// that do not belong to the admin surface.
func (b *Bot) handleAdminCallback(cq *tgbotapi.CallbackQuery, chatID int64, action, arg string) bool {
	if !strings.HasPrefix(action, "adm_") {
		return false
	}
	if !b.isAdmin(chatID) {
		b.answerCallback(cq, "Use /admin para entrar no painel.")
		return true
	}

	b.adminMu.RLock()
	form := b.adminForm[chatID]
	var step string
	if form != nil {
		step = form.Step
	}
	b.adminMu.RUnlock()

	switch action {
	case "adm_items":
		b.answerCallback(cq, "")
		b.sendAdminItems(chatID)
	case "adm_new":
		b.answerCallback(cq, "")
		b.startItemForm(chatID, "")
	case "adm_edit":
		b.answerCallback(cq, "")
		b.startItemForm(chatID, arg)
	case "adm_toggle":
		b.answerCallback(cq, "")
		b.toggleAvailability(chatID, arg)
	case "adm_del":
		b.answerCallback(cq, "")
		b.confirmDelete(chatID, arg)
	case "adm_del_yes":
		err := b.store.DeleteMenuItem(context.Background(), arg)
		b.warnIfUnpersisted(chatID, err)
		b.answerCallback(cq, "Item excluído.")
		b.send(chatID, "🗑 Item excluído do cardápio.")
	case "adm_del_no":
		b.answerCallback(cq, "Mantido.")
	case "adm_settings":
		b.answerCallback(cq, "")
		b.sendSettings(chatID)
	case "adm_set_phone":
		b.answerCallback(cq, "")
		b.adminMu.Lock()
		b.adminSetting[chatID] = "phone"
		b.adminMu.Unlock()
		b.send(chatID, "Digite o número do WhatsApp que recebe os pedidos (com DDI e DDD):")
	case "adm_set_url":
		b.answerCallback(cq, "")
		b.adminMu.Lock()
		b.adminSetting[chatID] = "url"
		b.adminMu.Unlock()
		b.send(chatID, "Digite a URL do cardápio para divulgação (ou - para remover):")
	case "adm_logout":
		b.adminMu.Lock()
		delete(b.adminAuthed, chatID)
		delete(b.adminForm, chatID)
		delete(b.adminSetting, chatID)
		b.adminMu.Unlock()
		b.answerCallback(cq, "Sessão encerrada.")
		b.send(chatID, "🚪 Você saiu do painel administrativo.")
	case "adm_keep":
		b.answerCallback(cq, "")
		if form == nil {
			return true
		}
		b.adminMu.Lock()
		switch form.Step {
		case "name":
			form.Step = "price"
		case "price":
			form.Step = "category"
		}
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "adm_cat":
		b.answerCallback(cq, "")
		if form == nil || !models.ValidCategory(arg) {
			return true
		}
		b.adminMu.Lock()
		form.Item.Category = arg
		form.Step = "description"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "adm_ai":
		b.answerCallback(cq, "")
		if form == nil || step != "description" {
			return true
		}
		b.generateDescription(chatID, form)
	case "adm_skip_desc":
		b.answerCallback(cq, "")
		if form == nil || step != "description" {
			return true
		}
		b.adminMu.Lock()
		form.Step = "photo"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "adm_skip_photo":
		b.answerCallback(cq, "")
		if form == nil || step != "photo" {
			return true
		}
		b.adminMu.Lock()
		form.Step = "availability"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "adm_clear_photo":
		b.answerCallback(cq, "")
		if form == nil || step != "photo" {
			return true
		}
		b.adminMu.Lock()
		form.Item.ImageUrl = ""
		form.Step = "availability"
		b.adminMu.Unlock()
		b.promptStep(chatID, form)
	case "adm_avail":
		b.answerCallback(cq, "")
		if form == nil || step != "availability" {
			return true
		}
		b.adminMu.Lock()
		form.Item.IsAvailable = arg == "yes"
		b.adminMu.Unlock()
		b.saveForm(chatID, form)
	default:
		b.answerCallback(cq, "")
	}
	return true
}

func (b *Bot) sendSettings(chatID int64) {
	s := b.store.Settings()
	shareURL := s.ShareUrl
	if shareURL == "" {
		shareURL = "(não configurada — o compartilhamento usa o contato direto)"
	}
	text := fmt.Sprintf("⚙️ Configurações\n\n📱 WhatsApp dos pedidos: %s\n🔗 URL de divulgação: %s",
		s.WhatsappNumber, shareURL)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📱 Alterar número", "adm_set_phone"),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Alterar URL", "adm_set_url"),
		),
	)
	b.sendWithInline(chatID, text, kb)
}
