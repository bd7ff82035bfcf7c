package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// reviewsChannel is the Postgres NOTIFY channel fired by the reviews insert
// trigger; the payload is the venue id.
const reviewsChannel = "venue_reviews"

type Review struct {
	ID       int64     `json:"id"`
	VenueID  int64     `json:"venue_id"`
	UserUID  int64     `json:"user_uid"`
	Title    string    `json:"title"`
	Comment  string    `json:"comment"`
	Rating   int       `json:"rating"` // 1-5
	Date     time.Time `json:"date"`
	ImageURL string    `json:"image_url,omitempty"`
	Verified bool      `json:"verified"`

	// Author snapshot joined at read time; the users table stays the single
	// source of truth for name and avatar.
	User map[string]interface{} `json:"user"`
}

// ReviewsUpdate is one emission of the live review feed.
type ReviewsUpdate struct {
	Reviews []Review
	Err     error
}

type ReviewsStore struct {
	db  *pgxpool.Pool
	dsn string
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		INSERT INTO reviews (venue_id, user_uid, title, comment, rating, image_url, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, date
	`
	err := s.db.QueryRow(ctx, q,
		review.VenueID,
		review.UserUID,
		review.Title,
		review.Comment,
		review.Rating,
		review.ImageURL,
		review.Verified,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("store review: %w", err)
	}
	return nil
}

// ListForVenue returns the venue's reviews ordered by date descending, each
// carrying its author snapshot. The join is a single batch LEFT JOIN; a
// review whose author no longer resolves gets an empty snapshot instead of
// failing the page.
func (s *ReviewsStore) ListForVenue(ctx context.Context, venueID int64) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		SELECT r.id, r.venue_id, r.user_uid, r.title, r.comment, r.rating, r.date,
		       r.image_url, r.verified,
		       u.name, u.bio, u.reviews_posted, u.profile_image_url
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_uid
		WHERE r.venue_id = $1
		ORDER BY r.date DESC
	`
	rows, err := s.db.Query(ctx, q, venueID)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r Review
		var name, bio, imageURL *string
		var reviewsPosted *int

		err := rows.Scan(
			&r.ID,
			&r.VenueID,
			&r.UserUID,
			&r.Title,
			&r.Comment,
			&r.Rating,
			&r.Date,
			&r.ImageURL,
			&r.Verified,
			&name,
			&bio,
			&reviewsPosted,
			&imageURL,
		)
		if err != nil {
			return nil, err
		}

		r.User = map[string]interface{}{}
		if name != nil {
			r.User = map[string]interface{}{
				"name":              *name,
				"bio":               deref(bio),
				"reviews_posted":    derefInt(reviewsPosted),
				"profile_image_url": imageURL,
			}
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return reviews, nil
}

// Subscribe opens a live feed of the venue's reviews. The first emission is
// the current state; each insert under the venue triggers a refetch. The
// LISTEN connection is released when ctx ends, and the returned channel is
// closed.
func (s *ReviewsStore) Subscribe(ctx context.Context, venueID int64) (<-chan ReviewsUpdate, error) {
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(reviewsChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", reviewsChannel, err)
	}

	updates := make(chan ReviewsUpdate, 1)

	go func() {
		defer close(updates)
		defer listener.Close()

		emit := func() {
			reviews, err := s.ListForVenue(ctx, venueID)
			select {
			case updates <- ReviewsUpdate{Reviews: reviews, Err: err}:
			case <-ctx.Done():
			}
		}

		emit()

		// lib/pq recommends pinging periodically so a dead connection is
		// noticed even when the channel is quiet.
		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()

		want := strconv.FormatInt(venueID, 10)
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// n is nil when the listener reconnects; refetch to be safe.
				if n == nil || n.Extra == want {
					emit()
				}
			case <-ping.C:
				if err := listener.Ping(); err != nil {
					select {
					case updates <- ReviewsUpdate{Err: err}:
					case <-ctx.Done():
					}
				}
			}
		}
	}()

	return updates, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
