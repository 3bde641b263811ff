package store

import (
	"fmt"
	"time"
)

// AdminUser may create tasks and step the simulation from the web API.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (db *DB) CreateAdminUser(username, passwordHash string) error {
	_, err := db.Exec(db.Q(`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`), username, passwordHash)
	return err
}

func (db *DB) GetAdminUser(username string) (*AdminUser, error) {
	u := &AdminUser{Username: username}
	var created stamp
	row := db.QueryRow(db.Q(`SELECT id, password_hash, created_at FROM admin_users WHERE username=?`), username)
	if err := row.Scan(&u.ID, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = created.t
	return u, nil
}

// SetAdminPassword replaces the stored hash for username.
func (db *DB) SetAdminPassword(username, passwordHash string) error {
	res, err := db.Exec(db.Q(`UPDATE admin_users SET password_hash=? WHERE username=?`), passwordHash, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("admin user %q not found", username)
	}
	return nil
}

func (db *DB) CountAdminUsers() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
