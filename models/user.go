package models

import "time"

// User represents a registered account.
// It maps to the `users` table in SQLite; roles live in `user_roles`.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	Roles        []Role    `json:"roles"`
}

// RoleNames returns the authority strings held by the user, in the order the
// roles were loaded.
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, string(r.Name))
	}
	return out
}
