package store

import (
	"context"
	"errors"
	"time"

	"drinkly/internal/geo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		UpdateUser(context.Context, int64, map[string]interface{}) error
		SetProfileImage(context.Context, int64, *string) error
		UpdateRefreshToken(context.Context, int64, string) error
		UpdateLocation(context.Context, int64, geo.Point, time.Time) error
		IncrementReviewsPosted(context.Context, int64, int) error
		FetchNearby(context.Context, geo.Point, float64, int64) ([]User, error)
		Leaderboard(context.Context, int) ([]User, error)
	}
	Venues interface {
		Search(context.Context, string, string, int, *geo.Point) ([]Venue, error)
		GetByID(context.Context, int64) (*Venue, error)
		RecalculateRating(context.Context, int64) error
		IncrementReviewsCount(context.Context, int64) error
		Nearby(context.Context, geo.Point, float64) ([]Venue, error)
	}
	MenuItems interface {
		GetForVenue(context.Context, int64) ([]MenuItem, error)
		GetForVenueByCategory(context.Context, int64, string) ([]MenuItem, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		ListForVenue(context.Context, int64) ([]Review, error)
		Subscribe(context.Context, int64) (<-chan ReviewsUpdate, error)
	}
	PushTokens interface {
		AddOrUpdate(context.Context, int64, string) error
		Remove(context.Context, int64, string) error
		GetTokens(context.Context, int64) ([]string, error)
	}
}

// NewStorage wires every store against the shared pool. The dsn is kept for
// the live review feed, which needs its own LISTEN connection.
func NewStorage(db *pgxpool.Pool, dsn string) Storage {
	return Storage{
		Users:      &UsersStore{db: db},
		Venues:     &VenuesStore{db: db},
		MenuItems:  &MenuItemsStore{db: db},
		Reviews:    &ReviewsStore{db: db, dsn: dsn},
		PushTokens: &PushTokensStore{db: db},
	}
}

// withTx runs fn inside a transaction, rolling back on error. Counter and
// rating updates go through here so concurrent writers serialize on the row.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
