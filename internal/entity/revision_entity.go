package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Revision is one applied structural mutation, persisted for document
// history. Payload carries the action parameters and the resulting structure.
type Revision struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId string    `gorm:"type:varchar(64);index"`
	UserId    string    `gorm:"type:varchar(64);index"`
	Action    string    `gorm:"type:varchar(16)"`
	Target    string
	ChunkId   string
	Payload   datatypes.JSON
	CreatedAt time.Time
}
