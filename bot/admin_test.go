package bot

import (
	"sync"
	"testing"

	"cardapio-telegram/config"
)

// newTestBot builds a Bot with just the state maps; nothing here touches the
// Telegram API.
func newTestBot() *Bot {
	return &Bot{
		cfg:         &config.Config{},
		adminAuthed: make(map[int64]bool),
		adminLogin:  make(map[int64]bool),
		adminForm:   make(map[int64]*itemForm),
	}
}

func TestClaimPhotoSingleWinner(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "photo"}
	b.adminForm[1] = form

	const uploads = 32
	var wg sync.WaitGroup
	wins := make(chan bool, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- b.claimPhoto(form)
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("claimPhoto won %d times, want exactly 1", won)
	}
}

func TestFinishPhotoStoresResult(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "photo"}
	b.adminForm[1] = form
	if !b.claimPhoto(form) {
		t.Fatal("claimPhoto returned false on a fresh form")
	}

	if !b.finishPhoto(1, form, "data:image/jpeg;base64,QUJD", nil) {
		t.Fatal("finishPhoto returned false for the live form")
	}
	if form.PhotoPending {
		t.Error("PhotoPending still set after finishPhoto")
	}
	if form.Item.ImageUrl != "data:image/jpeg;base64,QUJD" {
		t.Errorf("ImageUrl = %q", form.Item.ImageUrl)
	}
	if form.Step != "availability" {
		t.Errorf("Step = %q, want availability", form.Step)
	}

	// A second upload may start once the first settled.
	if !b.claimPhoto(form) {
		t.Error("claimPhoto blocked after the previous upload settled")
	}
}

func TestFinishPhotoDiscardedWhenFormClosed(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "photo"}
	b.adminForm[1] = form
	b.claimPhoto(form)

	// The admin cancelled and started over while the photo was in flight.
	replacement := &itemForm{Step: "name"}
	b.adminMu.Lock()
	b.adminForm[1] = replacement
	b.adminMu.Unlock()

	if b.finishPhoto(1, form, "data:image/jpeg;base64,QUJD", nil) {
		t.Fatal("finishPhoto accepted a result for a dismissed form")
	}
	if replacement.Item.ImageUrl != "" || replacement.Step != "name" {
		t.Errorf("replacement form mutated: %+v", replacement)
	}
}

func TestClaimEnhanceRequiresNameAndSingleFlight(t *testing.T) {
	b := newTestBot()

	form := &itemForm{Step: "description"}
	if _, _, ok := b.claimEnhance(form); ok {
		t.Error("claimEnhance succeeded without an item name")
	}

	form.Item.Name = "X-Burger"
	form.Item.Description = "queijo, bacon"
	name, notes, ok := b.claimEnhance(form)
	if !ok || name != "X-Burger" || notes != "queijo, bacon" {
		t.Fatalf("claimEnhance = (%q, %q, %v)", name, notes, ok)
	}
	if _, _, ok := b.claimEnhance(form); ok {
		t.Error("claimEnhance succeeded while a call was in flight")
	}
}

func TestClaimEnhanceDefaultsNotes(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "description"}
	form.Item.Name = "Caldinho"

	_, notes, ok := b.claimEnhance(form)
	if !ok {
		t.Fatal("claimEnhance returned false")
	}
	if notes != "ingredientes padrões" {
		t.Errorf("notes = %q", notes)
	}
}

func TestFinishEnhanceDiscardedWhenFormClosed(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "description"}
	form.Item.Name = "Caldinho"
	b.adminForm[1] = form
	b.claimEnhance(form)

	b.adminMu.Lock()
	delete(b.adminForm, 1)
	b.adminMu.Unlock()

	if b.finishEnhance(1, form, "texto gerado") {
		t.Fatal("finishEnhance accepted a result for a dismissed form")
	}
}

func TestFinishEnhanceAdvancesToPhoto(t *testing.T) {
	b := newTestBot()
	form := &itemForm{Step: "description"}
	form.Item.Name = "Caldinho"
	b.adminForm[1] = form
	b.claimEnhance(form)

	if !b.finishEnhance(1, form, "Caldinho quentinho da casa.") {
		t.Fatal("finishEnhance returned false for the live form")
	}
	if form.EnhancePending {
		t.Error("EnhancePending still set after finishEnhance")
	}
	if form.Item.Description != "Caldinho quentinho da casa." {
		t.Errorf("Description = %q", form.Item.Description)
	}
	if form.Step != "photo" {
		t.Errorf("Step = %q, want photo", form.Step)
	}
}

func TestIsAdminPreauthorizedChat(t *testing.T) {
	b := newTestBot()
	b.cfg.Telegram.AdminID = 42

	if !b.isAdmin(42) {
		t.Error("ADMIN_ID chat not recognized as admin")
	}
	if b.isAdmin(7) {
		t.Error("unrelated chat recognized as admin")
	}

	b.adminAuthed[7] = true
	if !b.isAdmin(7) {
		t.Error("password-authenticated chat not recognized as admin")
	}
}
