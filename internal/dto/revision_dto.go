package dto

import "time"

// RevisionMessage travels over the in-process archive topic from the
// orchestrator to the archiver.
type RevisionMessage struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	ChunkID    string    `json:"chunk_id"`
	Structure  string    `json:"structure"`
	OccurredAt time.Time `json:"occurred_at"`
}
