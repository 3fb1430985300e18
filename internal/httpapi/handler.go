// Package httpapi exposes the assistant over HTTP for the web front end.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/chat"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/idempotency"
)

// HeaderIdempotencyKey lets clients retry a turn without committing twice.
const HeaderIdempotencyKey = "Idempotency-Key"

const defaultReplayTTL = 10 * time.Minute

// TurnHandler runs one assistant turn.
type TurnHandler interface {
	Handle(ctx context.Context, utterance string, prior *assistant.ConversationState) (*assistant.TurnResult, error)
}

// QueryRequest is the body of POST /api/ai/consulta. The client echoes back
// the estado_conversacional it received on the previous turn.
type QueryRequest struct {
	Query string                       `json:"consulta" binding:"max=2000"`
	State *assistant.ConversationState `json:"estado_conversacional"`
}

type Handler struct {
	turns       TurnHandler
	idempotency idempotency.Manager
	errHandler  *apperrors.Handler
	tr          i18n.Translator
	replayTTL   time.Duration
	log         *slog.Logger
}

// NewHandler builds the endpoint handler. A nil manager disables replay of
// Idempotency-Key requests.
func NewHandler(turns TurnHandler, manager idempotency.Manager, errHandler *apperrors.Handler, tr i18n.Translator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log, false)
	}

	return &Handler{
		turns:       turns,
		idempotency: manager,
		errHandler:  errHandler,
		tr:          tr,
		replayTTL:   defaultReplayTTL,
		log:         log,
	}
}

// Query runs one turn. The commit, if any, happens before the response is
// written; acao only reports it.
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("corpo da requisição inválido")
		h.log.WarnContext(c.Request.Context(), "rejected consulta request", slog.String("code", appErr.Code), slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.UserMessage, "code": appErr.Code})
		return
	}

	ctx := chat.WithChannel(c.Request.Context(), chat.ChannelHTTP)

	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" || h.idempotency == nil {
		h.respond(ctx, c, req)
		return
	}

	res, err := h.idempotency.Execute(ctx, idempotency.Key("consulta", key), h.replayTTL, func(ctx context.Context) (any, error) {
		result, err := h.turns.Handle(ctx, req.Query, req.State)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	switch {
	case errors.Is(err, idempotency.ErrRequestInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": h.tr.T("bot.busy")})
	case err != nil:
		h.fail(ctx, c, err, req.State)
	case res.FromCache:
		raw, _ := res.Response.(json.RawMessage)
		c.Header("Idempotent-Replayed", "true")
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
	default:
		c.JSON(http.StatusOK, res.Response)
	}
}

func (h *Handler) respond(ctx context.Context, c *gin.Context, req QueryRequest) {
	result, err := h.turns.Handle(ctx, req.Query, req.State)
	if err != nil {
		h.fail(ctx, c, err, req.State)
		return
	}

	c.JSON(http.StatusOK, result)
}

// fail keeps the client's state so it can retry the same turn.
func (h *Handler) fail(ctx context.Context, c *gin.Context, err error, prior *assistant.ConversationState) {
	msg, _ := h.errHandler.Handle(ctx, err)
	if msg == "" {
		msg = h.tr.T("assistant.fallback")
	}

	c.JSON(http.StatusServiceUnavailable, &assistant.TurnResult{
		Reply: msg,
		Data:  assistant.Payload{Kind: assistant.KindInformational},
		State: prior,
	})
}
