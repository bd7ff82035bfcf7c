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
	"golang.org/x/crypto/bcrypt"
)

var ErrDuplicateEmail = errors.New("a user with that email already exists")

// RecencyWindow is how recent a user's last_active_at must be for their
// position to still count as live in proximity checks.
const RecencyWindow = 15 * time.Second

type User struct {
	UID             int64      `json:"uid"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Bio             string     `json:"bio"`
	ReviewsPosted   int        `json:"reviews_posted"`
	ProfileImageURL *string    `json:"profile_image_url"`
	Location        *geo.Point `json:"location,omitempty"`
	LastActiveAt    *time.Time `json:"last_active_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Password        password   `json:"-"`
	RefreshToken    string     `json:"-"`
}

// Snapshot is the denormalized author view attached to reviews at read time.
func (u *User) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"name":              u.Name,
		"bio":               u.Bio,
		"reviews_posted":    u.ReviewsPosted,
		"profile_image_url": u.ProfileImageURL,
	}
}

type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

type UsersStore struct {
	db *pgxpool.Pool
}

func (s *UsersStore) Create(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		INSERT INTO users (email, name, phone, bio, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, q,
		user.Email,
		user.Name,
		user.Phone,
		user.Bio,
		user.Password.hash,
	).Scan(&user.UID, &user.CreatedAt)

	if err != nil {
		if isDuplicateEmail(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// isDuplicateEmail recognizes the unique-constraint violation on users.email,
// raised on both registration and email changes.
func isDuplicateEmail(err error) bool {
	return err != nil && strings.Contains(err.Error(), `"users_email_key"`)
}

const userColumns = `id, email, name, phone, bio, reviews_posted, profile_image_url,
	location_lat, location_lng, last_active_at, created_at, password, refresh_token`

func scanUser(row pgx.Row, u *User) error {
	var lat, lng *float64
	err := row.Scan(
		&u.UID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Bio,
		&u.ReviewsPosted,
		&u.ProfileImageURL,
		&lat,
		&lng,
		&u.LastActiveAt,
		&u.CreatedAt,
		&u.Password.hash,
		&u.RefreshToken,
	)
	if err != nil {
		return err
	}
	if lat != nil && lng != nil {
		u.Location = &geo.Point{Latitude: *lat, Longitude: *lng}
	}
	return nil
}

func (s *UsersStore) GetByID(ctx context.Context, uid int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	var u User
	if err := scanUser(s.db.QueryRow(ctx, q, uid), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch user %d: %w", uid, err)
	}
	return &u, nil
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	var u User
	if err := scanUser(s.db.QueryRow(ctx, q, email), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	return &u, nil
}

// UpdateUser patches the profile fields of the edit-profile flow. Only the
// listed fields are accepted.
func (s *UsersStore) UpdateUser(ctx context.Context, uid int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	allowed := map[string]bool{"name": true, "email": true, "phone": true, "bio": true}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !allowed[field] {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, uid)

	q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, q, args...); err != nil {
		if isDuplicateEmail(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// SetProfileImage sets or clears (nil) the profile image URL.
func (s *UsersStore) SetProfileImage(ctx context.Context, uid int64, url *string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE users SET profile_image_url = $1 WHERE id = $2`, url, uid)
	return err
}

func (s *UsersStore) UpdateRefreshToken(ctx context.Context, uid int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, uid)
	return err
}

// UpdateLocation records the user's latest position and refreshes
// last_active_at, which drives the proximity recency check.
func (s *UsersStore) UpdateLocation(ctx context.Context, uid int64, p geo.Point, lastActiveAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `UPDATE users SET location_lat = $1, location_lng = $2, last_active_at = $3 WHERE id = $4`
	_, err := s.db.Exec(ctx, q, p.Latitude, p.Longitude, lastActiveAt, uid)
	return err
}

// IncrementReviewsPosted bumps the user's review tally as an atomic
// read-modify-write; verified reviews pass delta 2, others 1.
func (s *UsersStore) IncrementReviewsPosted(ctx context.Context, uid int64, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `SELECT reviews_posted FROM users WHERE id = $1 FOR UPDATE`, uid).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET reviews_posted = $1 WHERE id = $2`, count+delta, uid)
		return err
	})
}

// FetchNearby returns users whose last known position is within radiusMeters
// of the origin, whose last_active_at falls inside the recency window, and
// who are not the caller.
func (s *UsersStore) FetchNearby(ctx context.Context, origin geo.Point, radiusMeters float64, selfUID int64) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`SELECT %s FROM users`, userColumns)

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	return filterNearby(users, origin, radiusMeters, selfUID, time.Now()), nil
}

// filterNearby applies the three conjunctive proximity conditions: within
// radius, recently active, not the caller. A stale position never triggers a
// proximity hit even when it is inside the radius.
func filterNearby(users []User, origin geo.Point, radiusMeters float64, selfUID int64, now time.Time) []User {
	nearby := []User{}
	for _, u := range users {
		if u.UID == selfUID {
			continue
		}
		if u.Location == nil || geo.Distance(origin, *u.Location) > radiusMeters {
			continue
		}
		if u.LastActiveAt == nil || now.Sub(*u.LastActiveAt) > RecencyWindow {
			continue
		}
		nearby = append(nearby, u)
	}
	return nearby
}

// Leaderboard returns the top reviewers, ordered by reviews_posted
// descending; users with no reviews are left off the board.
func (s *UsersStore) Leaderboard(ctx context.Context, limit int) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE reviews_posted > 0
		ORDER BY reviews_posted DESC
		LIMIT $1
	`, userColumns)

	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	return users, nil
}
