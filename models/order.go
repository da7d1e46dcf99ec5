package models

// CartItem is a snapshot of a MenuItem taken when it was added to the cart,
// plus the chosen quantity. Later catalog edits never touch existing lines.
type CartItem struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Subtotal is the line total (unit price times quantity).
func (ci CartItem) Subtotal() float64 {
	return ci.Price * float64(ci.Quantity)
}

// Order is the checkout-time capture of a cart: lines in cart order, the
// computed total and the customer identification typed at checkout.
type Order struct {
	Items        []CartItem
	Total        float64
	CustomerName string
	TableNumber  string // optional
}

// AppSettings is the venue configuration, persisted as a single JSON object.
type AppSettings struct {
	WhatsappNumber string `json:"whatsappNumber"`
	ShareUrl       string `json:"shareUrl"`
}

// SettingsPatch carries a partial settings update; nil fields are left as-is.
type SettingsPatch struct {
	WhatsappNumber *string
	ShareUrl       *string
}

// ShareDraft is the ephemeral payload behind a share action. It is built on
// demand and discarded after use, never persisted.
type ShareDraft struct {
	Title string
	Text  string
	URL   string // empty when no share URL is configured
}
