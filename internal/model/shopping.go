package model

import (
	"time"

	"github.com/guregu/null/v5"
)

type ShoppingCategory struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShoppingItem struct {
	ID         int64     `json:"id"`
	ListID     int64     `json:"list_id"`
	CategoryID null.Int  `json:"category_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Purchased  bool      `json:"purchased"`
	SortIndex  int64     `json:"sort_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
