package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Menu item categories. MenuCategoryAll bypasses the category constraint.
const (
	MenuCategoryAll   = "all"
	MenuCategoryFood  = "food"
	MenuCategoryDrink = "drink"
)

type MenuItem struct {
	ID          int64   `json:"id"`
	VenueID     int64   `json:"venue_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Available   bool    `json:"available"`
	ImageURL    string  `json:"image_url"`
}

type MenuItemsStore struct {
	db *pgxpool.Pool
}

// GetForVenue returns the venue's available menu items. Unavailable items
// never surface through this store.
func (s *MenuItemsStore) GetForVenue(ctx context.Context, venueID int64) ([]MenuItem, error) {
	return s.query(ctx, venueID, MenuCategoryAll)
}

// GetForVenueByCategory narrows GetForVenue to one category; "all" behaves
// like GetForVenue.
func (s *MenuItemsStore) GetForVenueByCategory(ctx context.Context, venueID int64, category string) ([]MenuItem, error) {
	return s.query(ctx, venueID, category)
}

func (s *MenuItemsStore) query(ctx context.Context, venueID int64, category string) ([]MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		SELECT id, venue_id, name, description, category, price, currency, available, image_url
		FROM menu_items
		WHERE venue_id = $1 AND available = TRUE
	`
	args := []interface{}{venueID}
	if category != MenuCategoryAll {
		q += ` AND category = $2`
		args = append(args, category)
	}
	q += ` ORDER BY name`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch menu items: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		var item MenuItem
		if err := scanMenuItem(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch menu items: %w", err)
	}
	return items, nil
}

func scanMenuItem(row pgx.Row, item *MenuItem) error {
	return row.Scan(
		&item.ID,
		&item.VenueID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.Price,
		&item.Currency,
		&item.Available,
		&item.ImageURL,
	)
}
