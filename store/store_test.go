package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"cardapio-telegram/kvstore"
	"cardapio-telegram/models"
)

func newTestStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return Load(context.Background(), kv), kv
}

func TestLoadDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	if len(s.Catalog()) != 0 {
		t.Errorf("fresh store should have empty catalog, got %d items", len(s.Catalog()))
	}
	if s.Settings() != DefaultSettings {
		t.Errorf("fresh store settings = %+v, want defaults", s.Settings())
	}
}

func TestLoadMalformedFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	_ = kv.Set(ctx, KeyMenu, `{not json`)
	_ = kv.Set(ctx, KeySettings, `also not json`)

	s := Load(ctx, kv)
	if len(s.Catalog()) != 0 {
		t.Errorf("malformed menu should load empty, got %d items", len(s.Catalog()))
	}
	if s.Settings() != DefaultSettings {
		t.Errorf("malformed settings should load defaults, got %+v", s.Settings())
	}
}

func TestUpsertAssignsIDAndPersists(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	saved, err := s.UpsertMenuItem(ctx, models.MenuItem{
		Name:        "Coxinha",
		Price:       7.50,
		Category:    models.CategoryPetiscos,
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("UpsertMenuItem: %v", err)
	}
	if saved.ID == "" {
		t.Error("new item should get an id")
	}

	raw, err := kv.Get(ctx, KeyMenu)
	if err != nil {
		t.Fatalf("menu not persisted: %v", err)
	}
	var stored []models.MenuItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("persisted menu not valid JSON: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != saved.ID {
		t.Errorf("persisted menu = %+v", stored)
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a, _ := s.UpsertMenuItem(ctx, models.MenuItem{Name: "A", Price: 1, Category: models.CategoryLanches, IsAvailable: true})
	b, _ := s.UpsertMenuItem(ctx, models.MenuItem{Name: "B", Price: 2, Category: models.CategoryBebidas, IsAvailable: true})

	a.Name = "A editado"
	a.Price = 3.50
	updated, err := s.UpsertMenuItem(ctx, a)
	if err != nil {
		t.Fatalf("UpsertMenuItem edit: %v", err)
	}
	if updated.ID != a.ID {
		t.Errorf("edit changed the id: %s -> %s", a.ID, updated.ID)
	}

	cat := s.Catalog()
	if len(cat) != 2 {
		t.Fatalf("catalog has %d items, want 2", len(cat))
	}
	// Position preserved: edited item stays first.
	if cat[0].ID != a.ID || cat[0].Name != "A editado" || cat[1].ID != b.ID {
		t.Errorf("catalog order/fields after edit: %+v", cat)
	}
}

func TestUpsertUnknownIDGetsFreshID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	saved, err := s.UpsertMenuItem(ctx, models.MenuItem{
		ID:          "stale-id",
		Name:        "Z",
		Price:       1,
		Category:    models.CategoryLanches,
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("UpsertMenuItem: %v", err)
	}
	if saved.ID == "stale-id" || saved.ID == "" {
		t.Errorf("unknown id should be replaced with a fresh one, got %q", saved.ID)
	}
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	tests := []struct {
		name string
		item models.MenuItem
	}{
		{"empty name", models.MenuItem{Price: 1, Category: models.CategoryLanches}},
		{"negative price", models.MenuItem{Name: "X", Price: -1, Category: models.CategoryLanches}},
		{"bad category", models.MenuItem{Name: "X", Price: 1, Category: "Pizza"}},
	}
	for _, tt := range tests {
		if _, err := s.UpsertMenuItem(ctx, tt.item); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("%s: err = %v, want ErrInvalidItem", tt.name, err)
		}
	}
	if len(s.Catalog()) != 0 {
		t.Error("rejected items must not enter the catalog")
	}
}

func TestDeleteMenuItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a, _ := s.UpsertMenuItem(ctx, models.MenuItem{Name: "A", Price: 1, Category: models.CategoryLanches, IsAvailable: true})

	if err := s.DeleteMenuItem(ctx, "unknown"); err != nil {
		t.Errorf("delete of unknown id should be a silent no-op, got %v", err)
	}
	if err := s.DeleteMenuItem(ctx, a.ID); err != nil {
		t.Fatalf("DeleteMenuItem: %v", err)
	}
	if len(s.Catalog()) != 0 {
		t.Errorf("catalog after delete: %+v", s.Catalog())
	}
}

func TestDeleteLeavesCartLineUntouched(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	item, _ := s.UpsertMenuItem(ctx, models.MenuItem{Name: "Pastel", Price: 6, Category: models.CategoryPetiscos, IsAvailable: true})

	cart := NewCart()
	cart.Add(item)
	cart.Add(item)

	if err := s.DeleteMenuItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteMenuItem: %v", err)
	}

	lines := cart.Items()
	if len(lines) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(lines))
	}
	if lines[0].Name != "Pastel" || lines[0].Price != 6 || lines[0].Quantity != 2 {
		t.Errorf("orphaned cart line changed: %+v", lines[0])
	}
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	kv.FailSet = errors.New("quota exceeded")

	saved, err := s.UpsertMenuItem(ctx, models.MenuItem{Name: "X", Price: 1, Category: models.CategoryLanches, IsAvailable: true})
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("err = %v, want ErrPersist", err)
	}
	// In-memory change survives the failed write.
	if _, ok := s.Item(saved.ID); !ok {
		t.Error("item rolled back after failed persist")
	}

	// Next successful mutation writes the full current state.
	kv.FailSet = nil
	if _, err := s.UpsertMenuItem(ctx, models.MenuItem{Name: "Y", Price: 2, Category: models.CategoryBebidas, IsAvailable: true}); err != nil {
		t.Fatalf("UpsertMenuItem: %v", err)
	}
	raw, _ := kv.Get(ctx, KeyMenu)
	var stored []models.MenuItem
	_ = json.Unmarshal([]byte(raw), &stored)
	if len(stored) != 2 {
		t.Errorf("persisted catalog has %d items, want 2 (X carried into next write)", len(stored))
	}
}

func TestUpdateSettingsMerges(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	num := "5511999990000"
	if err := s.UpdateSettings(ctx, models.SettingsPatch{WhatsappNumber: &num}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got := s.Settings(); got.WhatsappNumber != num || got.ShareUrl != DefaultSettings.ShareUrl {
		t.Errorf("partial update touched other fields: %+v", got)
	}

	url := "https://cardapio.example.com"
	if err := s.UpdateSettings(ctx, models.SettingsPatch{ShareUrl: &url}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got := s.Settings(); got.WhatsappNumber != num || got.ShareUrl != url {
		t.Errorf("settings after both updates: %+v", got)
	}

	raw, err := kv.Get(ctx, KeySettings)
	if err != nil {
		t.Fatalf("settings not persisted: %v", err)
	}
	var stored models.AppSettings
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("persisted settings not valid JSON: %v", err)
	}
	if stored != s.Settings() {
		t.Errorf("persisted %+v != in-memory %+v", stored, s.Settings())
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := Load(ctx, kv)

	want := []models.MenuItem{
		{Name: "Feijoada", Description: "Completa", Price: 32.90, Category: models.CategoryRefeicoes, IsAvailable: true},
		{Name: "Pudim", Description: "De leite", Price: 9.50, Category: models.CategorySobremesas, ImageUrl: "data:image/jpeg;base64,AAAA", IsAvailable: false},
		{Name: "Caipirinha", Price: 15.00, Category: models.CategoryBebidas, IsAvailable: true},
	}
	for i := range want {
		saved, err := s.UpsertMenuItem(ctx, want[i])
		if err != nil {
			t.Fatalf("UpsertMenuItem: %v", err)
		}
		want[i].ID = saved.ID
	}

	// A fresh store over the same KV sees the same catalog, field for field,
	// order preserved.
	s2 := Load(ctx, kv)
	if got := s2.Catalog(); !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}
