package game

import (
	"context"
	"log"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// CHANGE NOTIFICATIONS
// =============================================================================

// Notifier fans a message out to everybody watching a room.
type Notifier interface {
	Publish(ctx context.Context, roomID string, msg internal.Message[any]) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, internal.Message[any]) error { return nil }

// broadcastRoomUpdate is best-effort. Clients refetch on the next update
// anyway, so a lost notification is logged and dropped.
func (s *Service) broadcastRoomUpdate(ctx context.Context, data internal.RoomUpdateData) {
	msg := internal.Message[any]{
		Type: internal.EventRoomUpdate,
		Data: data,
	}
	if err := s.notifier.Publish(ctx, data.RoomID, msg); err != nil {
		log.Printf("[broadcastRoomUpdate] room=%s: failed to publish %s: %v", data.RoomID, data.Type, err)
	}
}
