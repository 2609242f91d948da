package domain

type EventType string

// LikeChange is the payload of a postLiked event.
type LikeChange struct {
	PostID string `json:"postId"`
	Likes  int    `json:"likes"`
}

// Event is a self-contained change notification delivered to observers.
// Exactly one of Post, Like or Score is set, matching Type.
type Event struct {
	Type  EventType    `json:"type"`
	Post  *PostSummary `json:"post,omitempty"`
	Like  *LikeChange  `json:"like,omitempty"`
	Score *ScoreEntry  `json:"score,omitempty"`
}

func NewPostCreatedEvent(post PostSummary) Event {
	return Event{Type: EventPostCreated, Post: &post}
}

func NewPostLikedEvent(postID string, likes int) Event {
	return Event{Type: EventPostLiked, Like: &LikeChange{PostID: postID, Likes: likes}}
}

func NewScoreSubmittedEvent(score ScoreEntry) Event {
	return Event{Type: EventScoreSubmitted, Score: &score}
}

// Key returns the identifier an event is about, used for partitioning.
func (e Event) Key() string {
	switch {
	case e.Post != nil:
		return e.Post.ID
	case e.Like != nil:
		return e.Like.PostID
	case e.Score != nil:
		return e.Score.Username
	default:
		return ""
	}
}
