package models

// Table is a physical venue table. Tables are stable for the venue's
// lifetime and are referenced, never owned, by sessions and orders.
type Table struct {
	ID      string `json:"id"`
	Section string `json:"section"`
}

// Category groups menu items and decides which station fulfills them
type Category struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Station Station `json:"station"`
	Sort    int     `json:"sort"`
}

// MenuItem is a sellable item from the catalog capability
type MenuItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Available  bool    `json:"available"`
	CategoryID string  `json:"category_id"`
	Station    Station `json:"station"`
}
