package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-docedit-be/internal/constant"
	"ai-docedit-be/internal/dto"
	"ai-docedit-be/internal/entity"
	"ai-docedit-be/internal/repository/contract"
	"ai-docedit-be/pkg/events"
	pktNats "ai-docedit-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RevisionNotifier pushes a side-channel message to every session a user has
// open. Implemented by the websocket hub.
type RevisionNotifier interface {
	NotifyUser(userID string, message []byte)
}

type IArchiverService interface {
	Consume(ctx context.Context) error
}

// archiverService drains the archive topic: persists each applied mutation
// as a revision, emits the bus event, and notifies the user's sessions.
// Missing infrastructure (no DB, no NATS) degrades to logging.
type archiverService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	revisions contract.RevisionRepository
	publisher *pktNats.Publisher
	notifier  RevisionNotifier
}

func NewArchiverService(
	pubSub *gochannel.GoChannel,
	topicName string,
	revisions contract.RevisionRepository,
	publisher *pktNats.Publisher,
	notifier RevisionNotifier,
) IArchiverService {
	return &archiverService{
		pubSub:    pubSub,
		topicName: topicName,
		revisions: revisions,
		publisher: publisher,
		notifier:  notifier,
	}
}

func (as *archiverService) Consume(ctx context.Context) error {
	messages, err := as.pubSub.Subscribe(ctx, as.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			as.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (as *archiverService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.RevisionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal revision message: %v", err)
		msg.Ack() // invalid forever, no point retrying
		return
	}

	if as.revisions != nil {
		raw, _ := json.Marshal(payload)
		revision := &entity.Revision{
			Id:        uuid.New(),
			SessionId: payload.SessionID,
			UserId:    payload.UserID,
			Action:    payload.Action,
			Target:    payload.Target,
			ChunkId:   payload.ChunkID,
			Payload:   datatypes.JSON(raw),
			CreatedAt: time.Now(),
		}
		if err := as.revisions.Create(ctx, revision); err != nil {
			log.Printf("[ERROR] Failed to persist revision for session %s: %v", payload.SessionID, err)
			msg.Nack()
			return
		}
	} else {
		log.Printf("[INFO] Revision history disabled, skipping persist for session %s", payload.SessionID)
	}

	if as.publisher != nil {
		evt := events.NewRevisionApplied(
			payload.SessionID, payload.Action, payload.Target, payload.ChunkID, payload.Structure)
		if err := as.publisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish revision event: %v", err)
		}
	}

	if as.notifier != nil {
		note, _ := json.Marshal(dto.StatusMessage{
			Type: constant.MessageTypeStatus,
			Text: "Revision recorded: " + payload.Action,
		})
		as.notifier.NotifyUser(payload.UserID, note)
	}

	msg.Ack()
}
