package catalog

import (
	"context"
	"sort"
	"sync"

	"wolfpack-orders/internal/models"
)

// Catalog is the read-only menu capability the core consumes. The hosted
// menu backend is external; the core only needs lookups and availability.
type Catalog interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetItemsByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error)
	GetItem(ctx context.Context, itemID string) (*models.MenuItem, error)
}

// Static is an in-memory catalog seeded at construction. Used for tests and
// for venues whose menu is provisioned at deploy time.
type Static struct {
	mu         sync.RWMutex
	categories map[string]models.Category
	items      map[string]models.MenuItem
}

// NewStatic builds a catalog from the given categories and items. Item
// stations are derived from their category.
func NewStatic(categories []models.Category, items []models.MenuItem) *Static {
	c := &Static{
		categories: make(map[string]models.Category, len(categories)),
		items:      make(map[string]models.MenuItem, len(items)),
	}
	for _, cat := range categories {
		c.categories[cat.ID] = cat
	}
	for _, item := range items {
		if cat, ok := c.categories[item.CategoryID]; ok && item.Station == "" {
			item.Station = cat.Station
		}
		c.items[item.ID] = item
	}
	return c
}

// GetCategories returns all categories ordered by their sort index
func (c *Static) GetCategories(ctx context.Context) ([]models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sort != out[j].Sort {
			return out[i].Sort < out[j].Sort
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetItemsByCategory returns the items of one category ordered by name
func (c *Static) GetItemsByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.MenuItem
	for _, item := range c.items {
		if item.CategoryID == categoryID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetItem returns a single item, or ErrItemNotFound
func (c *Static) GetItem(ctx context.Context, itemID string) (*models.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[itemID]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return &item, nil
}

// SetAvailability flips an item's availability, e.g. when the kitchen runs out
func (c *Static) SetAvailability(itemID string, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[itemID]; ok {
		item.Available = available
		c.items[itemID] = item
	}
}
