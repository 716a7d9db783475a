package model

import "time"

// ParticipantSummary is one participant's frozen end-of-session stats.
type ParticipantSummary struct {
	ParticipantID string `json:"participantId" bson:"participantId"`
	Name          string `json:"name" bson:"name"`
	Participation int    `json:"participation" bson:"participation"`
	MovesEarned   int    `json:"movesEarned" bson:"movesEarned"`
	Currency      int    `json:"currency" bson:"currency"`
	Eliminated    bool   `json:"eliminated" bson:"eliminated"`
}

// SessionSummary is written exactly once when a session is finalized. The
// session id doubles as the document id so a second finalization attempt
// hits a duplicate key instead of writing twice. Partial is set when one or
// more participants' stats could not be read.
type SessionSummary struct {
	SessionID    string               `json:"sessionId" bson:"_id"`
	ClassID      string               `json:"classId" bson:"classId"`
	Participants []ParticipantSummary `json:"participants" bson:"participants"`
	Partial      bool                 `json:"partial" bson:"partial"`
	FinalizedAt  time.Time            `json:"finalizedAt" bson:"finalizedAt"`
}
