package domain

import "time"

// LikeSet is the set of user ids that currently like a post.
// Membership means liked; there is no other state.
type LikeSet map[string]struct{}

// Toggle flips membership of userID and reports whether it is now a member.
func (s LikeSet) Toggle(userID string) bool {
	if _, ok := s[userID]; ok {
		delete(s, userID)
		return false
	}
	s[userID] = struct{}{}
	return true
}

func (s LikeSet) Has(userID string) bool {
	_, ok := s[userID]
	return ok
}

func (s LikeSet) Len() int {
	return len(s)
}

// Post is the authoritative record of a community post.
type Post struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
	Likes     LikeSet
}

// PostSummary is the read model of a post. It carries the like count,
// never the like-set itself.
type PostSummary struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Username      string    `json:"username"`
	Content       string    `json:"content"`
	Likes         int       `json:"likes"`
	CreatedAt     time.Time `json:"createdAt"`
	LikedByViewer *bool     `json:"likedByViewer,omitempty"`
}
