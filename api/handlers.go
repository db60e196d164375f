package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chxlky/trello-pr-bridge/bridge"
	"github.com/chxlky/trello-pr-bridge/database"
	"github.com/chxlky/trello-pr-bridge/internal/config"
	"github.com/chxlky/trello-pr-bridge/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deliveryHeader = "X-GitHub-Delivery"

// ErrUnknownRepository is logged when a webhook arrives for a repository
// missing from TRELLO_IDS.
var ErrUnknownRepository = errors.New("repository is not configured")

type DeliveryStore interface {
	BeginDelivery(ctx context.Context, delivery models.Delivery) (bool, error)
	RecordResults(ctx context.Context, deliveryID string, results []bridge.CardResult, syncErr error) error
	Results(ctx context.Context, deliveryID string) (*models.Delivery, []models.CardSync, error)
}

type Handler struct {
	Secret []byte
	Boards map[int64]config.BoardConfig
	Syncer *bridge.Syncer
	// Store is optional; without it deliveries are neither deduplicated
	// nor recorded.
	Store DeliveryStore
}

func (h *Handler) GitHubWebhookHandler(c *gin.Context) {
	// A body that cannot be read cannot be verified either.
	body, err := c.GetRawData()
	if err == nil {
		err = VerifySignature(h.Secret, body, c.GetHeader(signatureHeader))
	}
	if err != nil {
		zap.L().Warn("Rejected webhook", zap.Error(err), zap.String("remoteAddr", c.ClientIP()))
		c.String(http.StatusBadRequest, "wrong secret")
		return
	}

	var event models.PullRequestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		zap.L().Warn("Could not decode webhook payload", zap.Error(err))
		c.String(http.StatusOK, "OK")
		return
	}

	pr := event.PullRequest
	if pr == nil {
		zap.L().Debug("Not a pull request")
		c.String(http.StatusOK, "OK")
		return
	}

	zap.L().Info("Processing pull request",
		zap.String("title", pr.Title),
		zap.String("action", event.Action),
		zap.String("head", pr.Head.Ref),
		zap.String("base", pr.Base.Ref),
	)

	if reason := bridge.IgnoreReason(event.Action, pr); reason != "" {
		zap.L().Debug("Ignoring pull request event", zap.String("reason", reason), zap.String("pr", pr.HTMLURL))
		c.String(http.StatusOK, "OK")
		return
	}

	board, ok := h.Boards[pr.RepoID()]
	if !ok {
		zap.L().Error("Configuration error", zap.Error(fmt.Errorf("%w: %d", ErrUnknownRepository, pr.RepoID())))
		c.String(http.StatusOK, "OK")
		return
	}

	deliveryID := c.GetHeader(deliveryHeader)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	log := zap.L().With(zap.String("deliveryID", deliveryID), zap.String("pr", pr.HTMLURL))

	// Card updates must finish even if GitHub stops waiting for the response.
	ctx := context.WithoutCancel(c.Request.Context())

	if h.Store != nil {
		duplicate, err := h.Store.BeginDelivery(ctx, models.Delivery{
			ID:     deliveryID,
			Action: event.Action,
			RepoID: pr.RepoID(),
			PRURL:  pr.HTMLURL,
		})
		if err != nil {
			log.Error("Could not record delivery", zap.Error(err))
		} else if duplicate {
			log.Info("Delivery already completed, skipping")
			c.String(http.StatusOK, "OK")
			return
		}
	}

	outcome, resolveErr := h.Syncer.Sync(ctx, event.Action, pr, board)
	if resolveErr != nil {
		log.Error("Could not resolve Trello cards", zap.Error(resolveErr))
	}
	for _, failed := range outcome.Failed() {
		log.Error("Trello card update failed",
			zap.String("shortLink", failed.ShortLink),
			zap.String("operation", failed.Operation),
			zap.String("column", failed.Column),
			zap.Error(failed.Err),
		)
	}
	log.Info("Pull request synced",
		zap.Strings("cards", outcome.ShortLinks),
		zap.Int("operations", len(outcome.Results)),
		zap.Int("failed", len(outcome.Failed())),
	)

	if h.Store != nil {
		syncErr := errors.Join(resolveErr, outcome.Err())
		if err := h.Store.RecordResults(ctx, deliveryID, outcome.Results, syncErr); err != nil {
			log.Error("Could not record card results", zap.Error(err))
		}
	}

	c.String(http.StatusOK, "OK")
}

func (h *Handler) DeliveryHandler(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "delivery history is disabled"})
		return
	}

	delivery, syncs, err := h.Store.Results(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrDeliveryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "delivery not found"})
		return
	}
	if err != nil {
		zap.L().Error("Could not load delivery", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load delivery"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivery": delivery, "results": syncs})
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
