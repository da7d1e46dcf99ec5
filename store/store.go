// Package store owns the catalog and the venue settings, persists them
// through a kvstore.KV, and provides the cart and the derived catalog views.
// All mutation goes through Store and Cart methods; nothing else writes the
// underlying slices.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"cardapio-telegram/kvstore"
	"cardapio-telegram/models"
)

// Storage keys. The values predate this codebase; changing them orphans
// previously saved data.
const (
	KeyMenu     = "vafc_menu_v2"
	KeySettings = "vafc_settings_v1"
)

// DefaultSettings is used when nothing is stored yet or the stored blob
// does not parse.
var DefaultSettings = models.AppSettings{
	WhatsappNumber: "5581998371952",
	ShareUrl:       "",
}

// ErrPersist wraps a storage write failure. The in-memory mutation that
// triggered the write is kept; callers warn the user and carry on.
var ErrPersist = errors.New("store: persist failed")

var ErrInvalidItem = errors.New("store: invalid menu item")

// Store holds the catalog and settings. Not safe for concurrent mutation;
// the bot drives it from a single update goroutine.
type Store struct {
	kv       kvstore.KV
	catalog  []models.MenuItem
	settings models.AppSettings
}

// Load builds a Store from whatever the KV holds. Absent or malformed data
// falls back to an empty catalog and DefaultSettings; Load never fails.
func Load(ctx context.Context, kv kvstore.KV) *Store {
	return LoadWithDefaults(ctx, kv, DefaultSettings)
}

// LoadWithDefaults is Load with caller-supplied fallback settings (the env
// configuration may override the built-in venue number).
func LoadWithDefaults(ctx context.Context, kv kvstore.KV, defaults models.AppSettings) *Store {
	s := &Store{kv: kv, settings: defaults}

	if raw, err := kv.Get(ctx, KeyMenu); err == nil {
		var items []models.MenuItem
		if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr == nil {
			s.catalog = items
		} else {
			log.Printf("store: stored menu is malformed, starting empty: %v", jsonErr)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		log.Printf("store: read menu: %v", err)
	}

	if raw, err := kv.Get(ctx, KeySettings); err == nil {
		var st models.AppSettings
		if jsonErr := json.Unmarshal([]byte(raw), &st); jsonErr == nil {
			s.settings = st
		} else {
			log.Printf("store: stored settings are malformed, using defaults: %v", jsonErr)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		log.Printf("store: read settings: %v", err)
	}

	return s
}

// Catalog returns the full ordered catalog, available and unavailable items
// alike. The returned slice is a copy; mutate through Store methods only.
func (s *Store) Catalog() []models.MenuItem {
	out := make([]models.MenuItem, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Item returns the catalog entry with the given id, or false.
func (s *Store) Item(id string) (models.MenuItem, bool) {
	for _, it := range s.catalog {
		if it.ID == id {
			return it, true
		}
	}
	return models.MenuItem{}, false
}

func (s *Store) Settings() models.AppSettings {
	return s.settings
}

// UpsertMenuItem replaces the entry with item.ID in place, or appends the
// item with a freshly assigned id when the id is empty or unknown. Persists
// the catalog; on write failure the in-memory change is kept and the error
// wraps ErrPersist.
func (s *Store) UpsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if item.Name == "" {
		return models.MenuItem{}, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if item.Price < 0 {
		return models.MenuItem{}, fmt.Errorf("%w: price must be >= 0", ErrInvalidItem)
	}
	if !models.ValidCategory(item.Category) {
		return models.MenuItem{}, fmt.Errorf("%w: unknown category %q", ErrInvalidItem, item.Category)
	}

	if item.ID != "" {
		for i := range s.catalog {
			if s.catalog[i].ID == item.ID {
				s.catalog[i] = item
				return item, s.persistMenu(ctx)
			}
		}
	}
	// No match (or no id): this is a new entry, with a fresh id either way.
	item.ID = uuid.NewString()
	s.catalog = append(s.catalog, item)
	return item, s.persistMenu(ctx)
}

// DeleteMenuItem removes the entry with the given id. Unknown ids are a
// silent no-op and do not persist. Cart lines snapshotting the id are left
// untouched by design.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	for i := range s.catalog {
		if s.catalog[i].ID == id {
			s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
			return s.persistMenu(ctx)
		}
	}
	return nil
}

// UpdateSettings merges the non-nil fields of patch into the settings and
// persists them.
func (s *Store) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	if patch.WhatsappNumber != nil {
		s.settings.WhatsappNumber = *patch.WhatsappNumber
	}
	if patch.ShareUrl != nil {
		s.settings.ShareUrl = *patch.ShareUrl
	}
	return s.persistSettings(ctx)
}

func (s *Store) persistMenu(ctx context.Context) error {
	b, err := json.Marshal(s.catalog)
	if err != nil {
		return fmt.Errorf("%w: marshal menu: %v", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, KeyMenu, string(b)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Store) persistSettings(ctx context.Context) error {
	b, err := json.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("%w: marshal settings: %v", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, KeySettings, string(b)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}
