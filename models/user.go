package models

import "time"

type User struct {
	ID        int       `json:"id" db:"id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GameIdentity links a user to their in-game identifier for one game.
// Registration requires the acting user to hold an identity for the
// tournament's game.
type GameIdentity struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	GameType  string    `json:"game_type" db:"game_type"`
	GameID    string    `json:"game_id" db:"game_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
