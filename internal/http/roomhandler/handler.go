package roomhandler

import (
	"net/http"

	"codecollab/internal/roomstore"
	"codecollab/internal/services/runner"

	"github.com/gin-gonic/gin"
)

// MemberCounter is the slice of the ws hub the REST surface needs.
type MemberCounter interface {
	Count(roomKey string) int
}

type Handler struct {
	store   *roomstore.Store
	counter MemberCounter
	runner  runner.IRunnerService
}

func New(store *roomstore.Store, counter MemberCounter, svc runner.IRunnerService) *Handler {
	return &Handler{store: store, counter: counter, runner: svc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms/:id", h.info)
	r.POST("/execute", h.execute)
}

// @Summary		Get room state
// @Description	Returns the current document snapshot and live member count of a room.
// @Tags			Rooms
// @Param			id	path		string	true	"Room key"	default(abc123)
// @Success		200	{object}	RoomInfoResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/rooms/{id} [get]
func (h *Handler) info(c *gin.Context) {
	key := c.Param("id")
	snap, ok := h.store.Snapshot(key)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, RoomInfoResponse{
		Content:  snap.Content,
		Language: string(snap.Language),
		Output:   snap.Output,
		Members:  h.counter.Count(key),
	})
}

// @Summary		Execute a snippet
// @Description	Runs the snippet through the execution engine and returns the combined output lines. Engine failures come back as a single descriptive line, not an HTTP error.
// @Tags			Execution
// @Param			body	body		ExecuteBody	true	"Snippet payload"
// @Success		200		{object}	ExecuteResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/execute [post]
func (h *Handler) execute(ginCtx *gin.Context) {
	var body ExecuteBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	lines := h.runner.Run(ginCtx.Request.Context(), roomstore.Language(body.Language), body.Content)
	ginCtx.JSON(http.StatusOK, ExecuteResponse{Output: lines})
}
