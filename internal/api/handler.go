package api

import (
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"cafeteria-backend/internal/store"
)

// Dispatcher queues a push notification for a collected token.
type Dispatcher interface {
	Dispatch(tokenID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier Dispatcher
}

// NewHandler creates a new API handler. notifier may be nil when push
// notifications are not configured.
func NewHandler(s store.Store, webpushOptions *webpush.Options, notifier Dispatcher) *Handler {
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}

// respondError maps a store error onto the HTTP surface: not-found → 404,
// any other domain error → 400 with its code and context, everything else →
// an opaque 500 logged server-side.
func respondError(c *gin.Context, err error) {
	if store.IsNotFound(err) {
		e, _ := store.AsDomainError(err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": e.Message, "code": e.Code, "context": e.Context})
		return
	}
	if e, ok := store.AsDomainError(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Message, "code": e.Code, "context": e.Context})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
