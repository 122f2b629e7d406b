package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/websocket"
)

const chatStream = "chat"

// ChatController handles course chat messages
type ChatController struct {
	chatService *services.ChatService
	realtime    *services.RealtimeService
	hub         *websocket.Hub
	upgrader    *gorilla.Upgrader
	streams     StreamRecorder
	logger      zerolog.Logger
}

// NewChatController creates a new ChatController
func NewChatController(
	chatService *services.ChatService,
	realtime *services.RealtimeService,
	hub *websocket.Hub,
	upgrader *gorilla.Upgrader,
	streams StreamRecorder,
	logger zerolog.Logger,
) *ChatController {
	return &ChatController{
		chatService: chatService,
		realtime:    realtime,
		hub:         hub,
		upgrader:    upgrader,
		streams:     streams,
		logger:      logger,
	}
}

// GetChatMessages godoc
// @Summary Get course chat messages
// @Description Messages of a course in the order they were sent, with sender names
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.ChatMessage}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid course ID"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized: JWT token missing or invalid"
// @Router /courses/{id}/chats [get]
func (c *ChatController) GetChatMessages(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	messages, err := c.chatService.ListMessages(ctx.Request.Context(), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(messages))
}

// SendChatMessage godoc
// @Summary Send a course chat message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param message body dto.CreateChatMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.ChatMessage}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Empty or oversized message"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Course not found"
// @Router /courses/{id}/chats [post]
func (c *ChatController) SendChatMessage(ctx *gin.Context) {
	senderID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateChatMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid chat message payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	message, err := c.chatService.PostMessage(ctx.Request.Context(), courseID, senderID, req.MessageText)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(message))
}

// StreamChat godoc
// @Summary Course chat stream
// @Description Upgrades to a websocket. The first frame is a snapshot of the history, then every new message is pushed. Frames sent by the peer ({"messageText": "..."}) are posted as messages.
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param access_token query string false "Access token for clients that cannot set headers"
// @Success 101 "Switching protocols"
// @Router /courses/{id}/chats/ws [get]
func (c *ChatController) StreamChat(ctx *gin.Context) {
	senderID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	snapshot, err := c.realtime.ChatSnapshot(ctx.Request.Context(), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to upgrade chat connection")
		return
	}

	client := websocket.NewClient(
		context.WithoutCancel(ctx.Request.Context()),
		c.hub, conn,
		services.ChatTopic(courseID),
		senderID.String(),
		c.realtime.ChatInbound(courseID, senderID),
		c.logger,
	)
	client.Send(snapshot)
	client.Serve()
	trackStream(client, c.streams, chatStream)
}

// trackStream counts the stream as open until the client's connection ends.
func trackStream(client *websocket.Client, streams StreamRecorder, name string) {
	streams.WebsocketOpened(name)
	go func() {
		<-client.Context().Done()
		streams.WebsocketClosed(name)
	}()
}
