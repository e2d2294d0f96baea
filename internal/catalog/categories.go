package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hoamai/storefront/internal/shared"
)

// Categories is the admin's category list with per-category display settings,
// keyed by canonical ID. Values are never mutated in place: every edit returns
// a new Categories.
type Categories struct {
	entries map[string]CategorySettings
}

// NewCategories builds a Categories value from a name-keyed record. Keys are
// canonicalized; a missing display name defaults to the original key.
func NewCategories(record map[string]CategorySettings) Categories {
	entries := make(map[string]CategorySettings, len(record))
	for name, settings := range record {
		id := shared.Slug(name)
		if id == "" {
			continue
		}
		if settings.DisplayName == "" {
			settings.DisplayName = strings.TrimSpace(name)
		}
		entries[id] = settings
	}
	return Categories{entries: entries}
}

func (c Categories) clone() map[string]CategorySettings {
	out := make(map[string]CategorySettings, len(c.entries)+1)
	for id, s := range c.entries {
		out[id] = s
	}
	return out
}

// Len returns the number of categories.
func (c Categories) Len() int {
	return len(c.entries)
}

// Has reports whether a category with this name exists.
func (c Categories) Has(name string) bool {
	_, ok := c.entries[shared.Slug(name)]
	return ok
}

// Get returns the stored settings of a category.
func (c Categories) Get(name string) (CategorySettings, bool) {
	s, ok := c.entries[shared.Slug(name)]
	return s, ok
}

// SettingsFor returns stored settings or the defaults for unknown categories.
func (c Categories) SettingsFor(name string) CategorySettings {
	if s, ok := c.Get(name); ok {
		return s.normalized()
	}
	return DefaultCategorySettings()
}

// IDs lists category IDs ordered by position, then display name.
func (c Categories) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := c.entries[ids[i]], c.entries[ids[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Record returns a copy of the entries keyed by canonical ID.
func (c Categories) Record() map[string]CategorySettings {
	return c.clone()
}

func (c Categories) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.clone())
}

func (c *Categories) UnmarshalJSON(data []byte) error {
	var record map[string]CategorySettings
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	*c = NewCategories(record)
	return nil
}

// Add returns a new value with the named category added.
func (c Categories) Add(name string, settings CategorySettings) (Categories, error) {
	id := shared.Slug(name)
	if id == "" {
		return c, ErrCategoryName
	}
	if _, ok := c.entries[id]; ok {
		return c, c.conflict(id)
	}
	if settings.DisplayName == "" {
		settings.DisplayName = strings.TrimSpace(name)
	}
	next := c.clone()
	next[id] = settings.normalized()
	return Categories{entries: next}, nil
}

// conflict names the stored category an ID belongs to. Names that differ
// only in diacritics share an ID, so "Bộ hoa" collides with "Bó hoa".
func (c Categories) conflict(id string) error {
	existing := c.entries[id].DisplayName
	if existing == "" {
		return ErrCategoryExists
	}
	return fmt.Errorf("%w: same ID %q as %q", ErrCategoryExists, id, existing)
}

// Update returns a new value with the settings of an existing category replaced.
func (c Categories) Update(name string, settings CategorySettings) (Categories, error) {
	id := shared.Slug(name)
	current, ok := c.entries[id]
	if !ok {
		return c, ErrCategoryNotFound
	}
	if settings.DisplayName == "" {
		settings.DisplayName = current.DisplayName
	}
	next := c.clone()
	next[id] = settings.normalized()
	return Categories{entries: next}, nil
}

// Delete returns a new value without the category. Products keep their
// association so the category can be restored; until then they surface as
// uncategorized.
func (c Categories) Delete(name string) (Categories, error) {
	id := shared.Slug(name)
	if _, ok := c.entries[id]; !ok {
		return c, ErrCategoryNotFound
	}
	next := c.clone()
	delete(next, id)
	return Categories{entries: next}, nil
}

// CategoryChange is the combined result of a rename: the next category list
// and every product whose categories changed. Both halves must be stored
// together.
type CategoryChange struct {
	Categories Categories
	Products   []Product
}

// Rename moves a category to a new name, rewriting every product reference.
func (c Categories) Rename(oldName, newName string, products []Product) (CategoryChange, error) {
	oldID, newID := shared.Slug(oldName), shared.Slug(newName)
	if newID == "" {
		return CategoryChange{Categories: c}, ErrCategoryName
	}
	settings, ok := c.entries[oldID]
	if !ok {
		return CategoryChange{Categories: c}, ErrCategoryNotFound
	}
	if _, taken := c.entries[newID]; taken && newID != oldID {
		return CategoryChange{Categories: c}, c.conflict(newID)
	}

	next := c.clone()
	delete(next, oldID)
	settings.DisplayName = strings.TrimSpace(newName)
	next[newID] = settings

	change := CategoryChange{Categories: Categories{entries: next}}
	if newID == oldID {
		return change, nil
	}
	for _, p := range products {
		if !p.Categories.Has(oldID) {
			continue
		}
		p.Categories = p.Categories.Replace(oldID, newID)
		change.Products = append(change.Products, p)
	}
	return change, nil
}

// Uncategorized returns products with no category known to the admin list.
func Uncategorized(products []Product, categories Categories) []Product {
	orphans := make([]Product, 0)
	for _, p := range products {
		known := false
		for _, id := range p.Categories {
			if _, ok := categories.entries[id]; ok {
				known = true
				break
			}
		}
		if !known {
			orphans = append(orphans, p)
		}
	}
	return orphans
}
