package domain

import "time"

// ScoreEntry is one row of the scoreboard.
type ScoreEntry struct {
	Username string    `json:"username"`
	Score    int       `json:"score"`
	Date     time.Time `json:"date"`
}
