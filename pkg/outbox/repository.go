package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
)

// Repository persists and drains the outbox_events table. Inserts ride
// the caller's transaction; reads and acknowledgements use the base
// handle, since the publisher runs outside any domain transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert queues an event inside tx so it commits, or rolls back, with
// the domain write it describes.
func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublished returns up to limit pending events in commit order.
// The id tie-break keeps replays deterministic when timestamps collide.
func (r *Repository) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	rows := make([]models.OutboxEvent, 0, limit)
	err := r.db.
		Where("published_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublished stamps the event as delivered.
func (r *Repository) MarkPublished(id uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published_at", time.Now()).Error
}

// MarkFailed records the delivery error and bumps the retry counter so
// the publisher can park poison events after enough attempts.
func (r *Repository) MarkFailed(id uuid.UUID, err error) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}
