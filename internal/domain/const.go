package domain

const (
	RequesterTokenCtxKey = "aq-requesterToken"
	ClientKeyCtxKey      = "aq-clientKey"
)

// Event names as they appear on the realtime channel.
const (
	EventPostCreated    EventType = "newCommunityPost"
	EventPostLiked      EventType = "postLiked"
	EventScoreSubmitted EventType = "newHighScore"
)
