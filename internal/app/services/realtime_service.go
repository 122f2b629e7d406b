package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/viewstate"
	"github.com/yigit/collegeerp/internal/pkg/websocket"
)

// Hub topics.
const (
	TopicChanges   = "changes"
	TopicDashboard = "dashboard"
)

// Envelope event names.
const (
	EventChange   = "change"
	EventSnapshot = "snapshot"
	EventError    = "error"
)

// dashboardTables are the tables whose changes refresh dashboard counters.
var dashboardTables = map[string]bool{
	enums.TableProfiles:    true,
	enums.TableDepartments: true,
	enums.TableCourses:     true,
	enums.TableODRequests:  true,
}

// ChatTopic is the hub topic of one course's chat.
func ChatTopic(courseID uuid.UUID) string {
	return enums.TableChats + ":" + courseID.String()
}

// ChangeRecorder observes delivered change events.
type ChangeRecorder interface {
	ChangeEvent(table, changeType, outcome string)
}

// HubPublisher delivers change events to websocket peers. Every change goes
// to TopicChanges; a keyed change also goes to "<table>:<key>".
type HubPublisher struct {
	hub      *websocket.Hub
	recorder ChangeRecorder
}

// NewHubPublisher creates a publisher on hub. recorder may be nil.
func NewHubPublisher(hub *websocket.Hub, recorder ChangeRecorder) *HubPublisher {
	return &HubPublisher{hub: hub, recorder: recorder}
}

// Publish broadcasts change as a "change" envelope.
func (p *HubPublisher) Publish(_ context.Context, change events.Change) error {
	topics := []string{TopicChanges}
	if change.Key != "" {
		topics = append(topics, change.Table+":"+change.Key)
	}
	for _, topic := range topics {
		data, err := websocket.NewEnvelope(EventChange, topic, change)
		if err != nil {
			p.record(change, "failed")
			return fmt.Errorf("failed to encode change envelope: %w", err)
		}
		p.hub.Broadcast(topic, data)
	}
	p.record(change, "delivered")
	return nil
}

func (p *HubPublisher) record(change events.Change, outcome string) {
	if p.recorder != nil {
		p.recorder.ChangeEvent(change.Table, change.Type, outcome)
	}
}

// RealtimeService drives the dashboard and chat streams.
type RealtimeService struct {
	hub    *websocket.Hub
	stats  StatsStore
	chats  *ChatService
	logger zerolog.Logger
}

// NewRealtimeService creates a new RealtimeService
func NewRealtimeService(hub *websocket.Hub, stats StatsStore, chats *ChatService, logger zerolog.Logger) *RealtimeService {
	return &RealtimeService{hub: hub, stats: stats, chats: chats, logger: logger}
}

type errorPayload struct {
	Message string `json:"message"`
}

// DashboardStream pushes a stats snapshot now and after every relevant change
// until ctx ends. Refreshes triggered in quick succession supersede each
// other, so a slow count never overwrites a newer one.
func (s *RealtimeService) DashboardStream(ctx context.Context, send func([]byte) bool) error {
	changes, unsubscribe := s.hub.Subscribe(TopicChanges, 64)
	defer unsubscribe()

	view := viewstate.New[*models.DashboardStats](ctx, s.stats.Counts,
		viewstate.WithOnCommit(func(snap viewstate.Snapshot[*models.DashboardStats]) {
			s.pushStats(ctx, send, snap)
		}),
	)
	defer view.Close()

	if _, err := view.Refresh(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-changes:
			if !ok {
				return nil
			}
			if table, ok := changedTable(msg); ok && dashboardTables[table] {
				if _, err := view.Refresh(); err != nil {
					return nil
				}
			}
		}
	}
}

func (s *RealtimeService) pushStats(ctx context.Context, send func([]byte) bool, snap viewstate.Snapshot[*models.DashboardStats]) {
	var (
		data []byte
		err  error
	)
	if snap.Err != nil {
		if ctx.Err() != nil || errors.Is(snap.Err, context.Canceled) {
			return
		}
		s.logger.Error().Err(snap.Err).Msg("Failed to refresh dashboard stats")
		data, err = websocket.NewEnvelope(EventError, TopicDashboard, errorPayload{Message: "Failed to load dashboard stats."})
	} else {
		data, err = websocket.NewEnvelope(EventSnapshot, TopicDashboard, snap.Value)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode dashboard envelope")
		return
	}
	if !send(data) {
		s.logger.Debug().Msg("Dashboard stream peer is gone or slow, snapshot dropped")
	}
}

func changedTable(msg []byte) (string, bool) {
	var env struct {
		Payload struct {
			Table string `json:"table"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(msg, &env); err != nil || env.Payload.Table == "" {
		return "", false
	}
	return env.Payload.Table, true
}

// ChatSnapshot encodes a course's message history as a snapshot envelope.
func (s *RealtimeService) ChatSnapshot(ctx context.Context, courseID uuid.UUID) ([]byte, error) {
	messages, err := s.chats.ListMessages(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return websocket.NewEnvelope(EventSnapshot, ChatTopic(courseID), messages)
}

type inboundChatMessage struct {
	MessageText string `json:"messageText"`
}

// ChatInbound posts every frame a chat peer sends as a message from senderID.
// The stored message reaches all peers, the sender included, through the hub.
func (s *RealtimeService) ChatInbound(courseID, senderID uuid.UUID) websocket.InboundFunc {
	return func(ctx context.Context, message []byte) error {
		var in inboundChatMessage
		if err := json.Unmarshal(message, &in); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
		_, err := s.chats.PostMessage(ctx, courseID, senderID, in.MessageText)
		return err
	}
}
