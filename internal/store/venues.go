package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"drinkly/internal/geo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Venue categories. CategoryAll is the sentinel that disables server-side
// category filtering in Search.
const (
	CategoryAll         = "all"
	CategoryRestaurant  = "restaurant"
	CategoryCafe        = "cafe"
	CategoryBar         = "bar"
	CategoryPub         = "pub"
	CategoryLocalTavern = "local_tavern"
	CategoryFastFood    = "fast_food"
	CategoryOther       = "other"
)

type Venue struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Category     string    `json:"category"`
	Location     geo.Point `json:"location"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviews_count"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type VenuesStore struct {
	db *pgxpool.Pool
}

const venueColumns = `id, name, address, phone, category,
	location_lat, location_lng, rating, reviews_count, description, image_url, created_at`

func scanVenue(row pgx.Row, v *Venue) error {
	return row.Scan(
		&v.ID,
		&v.Name,
		&v.Address,
		&v.Phone,
		&v.Category,
		&v.Location.Latitude,
		&v.Location.Longitude,
		&v.Rating,
		&v.ReviewsCount,
		&v.Description,
		&v.ImageURL,
		&v.CreatedAt,
	)
}

// Search fetches candidate venues, pre-filtered server-side by exact category
// match unless the category is "all", then narrows the result in memory: a
// non-blank query keeps only venues whose name contains it case-insensitively,
// and a positive radius with an origin drops venues farther than radiusKm.
func (s *VenuesStore) Search(ctx context.Context, category, query string, radiusKm int, origin *geo.Point) ([]Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`SELECT %s FROM venues`, venueColumns)
	args := []interface{}{}
	if category != CategoryAll {
		q += ` WHERE category = $1`
		args = append(args, category)
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch venues: %w", err)
	}
	defer rows.Close()

	venues := []Venue{}
	for rows.Next() {
		var v Venue
		if err := scanVenue(rows, &v); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch venues: %w", err)
	}

	venues = filterByName(venues, query)
	if radiusKm > 0 && origin != nil {
		venues = FilterByDistance(venues, *origin, float64(radiusKm)*1000)
	}
	return venues, nil
}

// GetByID returns (nil, nil) when the venue does not exist; an error only
// signals a transport or store failure.
func (s *VenuesStore) GetByID(ctx context.Context, id int64) (*Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`SELECT %s FROM venues WHERE id = $1`, venueColumns)

	var v Venue
	err := scanVenue(s.db.QueryRow(ctx, q, id), &v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch venue %d: %w", id, err)
	}
	return &v, nil
}

// RecalculateRating reads every review under the venue, averages the ratings
// (0 with no reviews) and writes the result back. The venue row is locked for
// the duration so concurrent recalculations and counter increments serialize.
func (s *VenuesStore) RecalculateRating(ctx context.Context, venueID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		rows, err := tx.Query(ctx, `SELECT rating FROM reviews WHERE venue_id = $1`, venueID)
		if err != nil {
			return err
		}
		defer rows.Close()

		var ratings []int
		for rows.Next() {
			var r int
			if err := rows.Scan(&r); err != nil {
				return err
			}
			ratings = append(ratings, r)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE venues SET rating = $1 WHERE id = $2`, averageRating(ratings), venueID)
		return err
	})
}

// IncrementReviewsCount bumps the venue's review counter by one, as an atomic
// read-modify-write against other writers of the same row.
func (s *VenuesStore) IncrementReviewsCount(ctx context.Context, venueID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `SELECT reviews_count FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE venues SET reviews_count = $1 WHERE id = $2`, count+1, venueID)
		return err
	})
}

// Nearby returns the venues within radiusMeters of the origin.
func (s *VenuesStore) Nearby(ctx context.Context, origin geo.Point, radiusMeters float64) ([]Venue, error) {
	venues, err := s.Search(ctx, CategoryAll, "", 0, nil)
	if err != nil {
		return nil, err
	}
	return FilterByDistance(venues, origin, radiusMeters), nil
}

// FilterByDistance keeps venues whose distance from the origin is at most
// radiusMeters (boundary inclusive). Factored out so the proximity
// notification pipeline can reuse it on already-fetched sets.
func FilterByDistance(venues []Venue, origin geo.Point, radiusMeters float64) []Venue {
	filtered := []Venue{}
	for _, v := range venues {
		if geo.Distance(origin, v.Location) <= radiusMeters {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func filterByName(venues []Venue, query string) []Venue {
	if strings.TrimSpace(query) == "" {
		return venues
	}
	needle := strings.ToLower(query)

	filtered := []Venue{}
	for _, v := range venues {
		if strings.Contains(strings.ToLower(v.Name), needle) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r
	}
	return float64(total) / float64(len(ratings))
}
