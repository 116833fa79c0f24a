package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

const maxRoomCodeAttempts = 5

type CreateRoomRequest struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	RoomName    string `json:"roomName"`
	IsPermanent bool   `json:"isPermanent"`
}

type JoinRoomRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	RoomID string `json:"roomId"`
}

// CreateRoom opens a room in the lobby and seats its creator as admin.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*internal.RoomView, error) {
	// 1. Validate input
	name := strings.TrimSpace(req.Name)
	roomName := strings.TrimSpace(req.RoomName)
	if name == "" || roomName == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "name and room name are required")
	}

	// 2. Guests without an id get a fresh one
	userID := req.UserID
	if userID == "" {
		userID = s.newID()
	}

	// 3. Insert the room, retrying on the rare short code collision
	var room *internal.Room
	for attempt := 1; ; attempt++ {
		room = &internal.Room{
			Id:              s.newCode(),
			Name:            roomName,
			AdminUserID:     userID,
			IsPermanent:     req.IsPermanent,
			GameState:       internal.GameStateWaiting,
			CurrentRound:    0,
			Settings:        internal.DefaultSettings(),
			UsedQuestionIDs: []string{},
		}
		err := s.store.CreateRoom(ctx, room)
		if err == nil {
			break
		}
		if errors.Is(err, internal.ErrConflict) && attempt < maxRoomCodeAttempts {
			log.Printf("[CreateRoom] room code %s taken, retrying", room.Id)
			continue
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	// 4. Seat the admin
	admin := &internal.Player{
		UserID: userID,
		RoomID: room.Id,
		Name:   name,
		Avatar: avatarOrInitial(req.Avatar, name),
		Role:   internal.RoleYou,
	}
	if err := s.store.AddPlayer(ctx, admin); err != nil {
		log.Printf("[CreateRoom] room=%s: failed to add admin %s: %v", room.Id, userID, err)
		return nil, fmt.Errorf("add admin: %w", err)
	}

	log.Printf("[CreateRoom] room=%s: created %q by %s", room.Id, room.Name, userID)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
		Type:   internal.UpdatePlayerJoined,
		RoomID: room.Id,
		UserID: userID,
		Player: admin,
	})
	return &internal.RoomView{Room: room, Players: []*internal.Player{admin}}, nil
}

// JoinRoom seats a player with the next free role. Joining a room you are
// already in changes nothing.
func (s *Service) JoinRoom(ctx context.Context, req JoinRoomRequest) (*internal.RoomView, error) {
	roomID := NormalizeRoomCode(req.RoomID)
	name := strings.TrimSpace(req.Name)
	if roomID == "" || name == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "name and room id are required")
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID != "" && internal.FindPlayer(players, userID) != nil {
		log.Printf("[JoinRoom] room=%s: %s is already seated", roomID, userID)
		return &internal.RoomView{Room: room, Players: players}, nil
	}
	if userID == "" {
		userID = s.newID()
	}

	role, ok := internal.NextFreeRole(players)
	if !ok || len(players) >= internal.RequiredPlayerCount {
		return nil, internal.Errorf(internal.ErrConflict, "room is full")
	}

	player := &internal.Player{
		UserID: userID,
		RoomID: roomID,
		Name:   name,
		Avatar: avatarOrInitial(req.Avatar, name),
		Role:   role,
	}
	if err := s.store.AddPlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("add player: %w", err)
	}
	players = append(players, player)

	log.Printf("[JoinRoom] room=%s: %s joined as %s (%d/%d)", roomID, userID, role, len(players), internal.RequiredPlayerCount)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
		Type:   internal.UpdatePlayerJoined,
		RoomID: roomID,
		UserID: userID,
		Player: player,
	})
	return &internal.RoomView{Room: room, Players: players}, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID string) (*internal.RoomView, error) {
	roomID = NormalizeRoomCode(roomID)
	if roomID == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "room id is required")
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &internal.RoomView{Room: room, Players: players}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// avatarOrInitial falls back to the upper-cased first letter of the name.
func avatarOrInitial(avatar, name string) string {
	if avatar != "" {
		return avatar
	}
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
