package catalog

import "wolfpack-orders/internal/models"

// DefaultMenu returns the built-in venue menu used when no external menu
// source is configured.
func DefaultMenu() ([]models.Category, []models.MenuItem) {
	categories := []models.Category{
		{ID: "starters", Name: "Starters", Station: models.StationKitchen, Sort: 1},
		{ID: "mains", Name: "Mains", Station: models.StationKitchen, Sort: 2},
		{ID: "desserts", Name: "Desserts", Station: models.StationKitchen, Sort: 3},
		{ID: "beer", Name: "Beer", Station: models.StationBar, Sort: 4},
		{ID: "cocktails", Name: "Cocktails", Station: models.StationBar, Sort: 5},
		{ID: "soft-drinks", Name: "Soft Drinks", Station: models.StationBar, Sort: 6},
	}

	items := []models.MenuItem{
		{ID: "wings", Name: "Buffalo Wings", Price: 9.50, Available: true, CategoryID: "starters"},
		{ID: "nachos", Name: "Loaded Nachos", Price: 8.00, Available: true, CategoryID: "starters"},
		{ID: "burger", Name: "Wolfpack Burger", Price: 10.00, Available: true, CategoryID: "mains"},
		{ID: "fish-and-chips", Name: "Fish and Chips", Price: 12.50, Available: true, CategoryID: "mains"},
		{ID: "ribeye", Name: "Ribeye Steak", Price: 24.00, Available: true, CategoryID: "mains"},
		{ID: "brownie", Name: "Chocolate Brownie", Price: 6.00, Available: true, CategoryID: "desserts"},
		{ID: "ipa-pint", Name: "House IPA Pint", Price: 7.00, Available: true, CategoryID: "beer"},
		{ID: "lager-pint", Name: "Lager Pint", Price: 6.00, Available: true, CategoryID: "beer"},
		{ID: "old-fashioned", Name: "Old Fashioned", Price: 11.00, Available: true, CategoryID: "cocktails"},
		{ID: "margarita", Name: "Margarita", Price: 10.00, Available: true, CategoryID: "cocktails"},
		{ID: "cola", Name: "Cola", Price: 3.00, Available: true, CategoryID: "soft-drinks"},
		{ID: "sparkling-water", Name: "Sparkling Water", Price: 2.50, Available: true, CategoryID: "soft-drinks"},
	}

	return categories, items
}
