package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/covechat/cove/internal/auth"
	"github.com/covechat/cove/internal/directory"
	"github.com/covechat/cove/internal/presence"
	"github.com/covechat/cove/internal/service"
	"github.com/covechat/cove/pkg/log"
	"github.com/covechat/cove/pkg/response"
)

// HTTPHandler serves the query surface next to the realtime transport:
// online identities and the room list.
type HTTPHandler struct {
	service  service.ChatService
	presence presence.Tracker
	verifier auth.Verifier
	sf       singleflight.Group
}

func NewHTTPHandler(svc service.ChatService, tracker presence.Tracker, verifier auth.Verifier) *HTTPHandler {
	return &HTTPHandler{
		service:  svc,
		presence: tracker,
		verifier: verifier,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/online-users", h.OnlineUsers)
		api.GET("/rooms", h.ListRooms)
		api.POST("/rooms", h.requireAuth(), h.CreateRoom)
	}
}

// OnlineUsers lists identities active within the presence window. Clients
// poll this on a short interval, so concurrent reads share one store call.
func (h *HTTPHandler) OnlineUsers(c *gin.Context) {
	ctx := c.Request.Context()

	result, err, _ := h.sf.Do("online-users", func() (interface{}, error) {
		return h.presence.ListOnline(ctx)
	})
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list online users")
		response.InternalError(c, "failed to list online users")
		return
	}

	response.Success(c, result)
}

func (h *HTTPHandler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()

	rooms, err := h.service.ListRooms(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list rooms")
		response.InternalError(c, "failed to list rooms")
		return
	}

	response.Success(c, rooms)
}

type createRoomRequest struct {
	Name    string `json:"name" binding:"required"`
	Private bool   `json:"private"`
}

func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create room request")
		response.BadRequest(c, err.Error())
		return
	}

	creator := c.GetString(ctxKeyUsername)
	room, err := h.service.CreateRoom(ctx, req.Name, creator, req.Private)
	if err != nil {
		if errors.Is(err, directory.ErrRoomExists) {
			response.Conflict(c, "room already exists")
			return
		}
		if errors.Is(err, directory.ErrInvalidRoomName) {
			response.BadRequest(c, "invalid room name")
			return
		}
		l.Error().Err(err).Str(log.FieldRoom, req.Name).Msg("failed to create room")
		response.InternalError(c, "failed to create room")
		return
	}

	response.Created(c, room)
}

const ctxKeyUsername = "username"

// requireAuth verifies the bearer token and stores the identity on the
// request context.
func (h *HTTPHandler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			response.Unauthorized(c, "missing token")
			c.Abort()
			return
		}

		username, err := h.verifier.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(ctxKeyUsername, username)
		c.Next()
	}
}
