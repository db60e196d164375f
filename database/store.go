package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/chxlky/trello-pr-bridge/bridge"
	"github.com/chxlky/trello-pr-bridge/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDeliveryNotFound is returned by Results for an unknown delivery id.
var ErrDeliveryNotFound = errors.New("delivery not found")

// Store keeps a record of handled webhook deliveries and their card results.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// BeginDelivery claims the delivery and reports whether it is a duplicate of
// one that already completed. An incomplete delivery is claimed again with
// its attempt counter bumped.
func (s *Store) BeginDelivery(ctx context.Context, delivery models.Delivery) (bool, error) {
	delivery.Attempts = 1
	delivery.Completed = false

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&delivery)
	if result.Error != nil {
		return false, fmt.Errorf("recording delivery %s: %w", delivery.ID, result.Error)
	}
	if result.RowsAffected == 1 {
		return false, nil
	}

	result = s.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND completed = ?", delivery.ID, false).
		Updates(map[string]any{
			"attempts": gorm.Expr("attempts + 1"),
			"action":   delivery.Action,
			"error":    "",
		})
	if result.Error != nil {
		return false, fmt.Errorf("reclaiming delivery %s: %w", delivery.ID, result.Error)
	}
	return result.RowsAffected == 0, nil
}

// RecordResults stores one row per card operation of the delivery and marks
// the delivery completed when syncErr is nil.
func (s *Store) RecordResults(ctx context.Context, deliveryID string, results []bridge.CardResult, syncErr error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := map[string]any{"completed": syncErr == nil, "error": ""}
		if syncErr != nil {
			update["error"] = syncErr.Error()
		}
		if err := tx.Model(&models.Delivery{}).Where("id = ?", deliveryID).Updates(update).Error; err != nil {
			return fmt.Errorf("updating delivery %s: %w", deliveryID, err)
		}
		return createCardSyncs(tx, deliveryID, results)
	})
}

func createCardSyncs(tx *gorm.DB, deliveryID string, results []bridge.CardResult) error {
	if len(results) == 0 {
		return nil
	}

	rows := make([]models.CardSync, len(results))
	for i, r := range results {
		rows[i] = models.CardSync{
			DeliveryID: deliveryID,
			ShortLink:  r.ShortLink,
			Operation:  r.Operation,
			Column:     r.Column,
			Status:     string(r.Status),
		}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
		}
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("recording card results for %s: %w", deliveryID, err)
	}
	return nil
}

// Results returns the delivery and its card operations in insertion order.
func (s *Store) Results(ctx context.Context, deliveryID string) (*models.Delivery, []models.CardSync, error) {
	var delivery models.Delivery
	err := s.db.WithContext(ctx).First(&delivery, "id = ?", deliveryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading delivery %s: %w", deliveryID, err)
	}

	var syncs []models.CardSync
	if err := s.db.WithContext(ctx).Where("delivery_id = ?", deliveryID).Order("id").Find(&syncs).Error; err != nil {
		return nil, nil, fmt.Errorf("loading card results for %s: %w", deliveryID, err)
	}
	return &delivery, syncs, nil
}
