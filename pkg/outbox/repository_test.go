package outbox

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
)

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn), conn
}

func seedEvent(t *testing.T, conn *gorm.DB, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventTransferCreated,
		AggregateType: enums.AggregateTransfer,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func TestInsertRequiresTransaction(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	err := repo.Insert(nil, models.OutboxEvent{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestFetchUnpublishedSkipsDeliveredEvents(t *testing.T) {
	t.Parallel()

	repo, conn := newTestRepository(t)
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	first := seedEvent(t, conn, base)
	second := seedEvent(t, conn, base.Add(time.Minute))
	delivered := seedEvent(t, conn, base.Add(2*time.Minute))

	if err := repo.MarkPublished(delivered.ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	rows, err := repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending events, got %d", len(rows))
	}
	if rows[0].ID != first.ID || rows[1].ID != second.ID {
		t.Fatal("pending events out of commit order")
	}
}

func TestMarkFailedBumpsAttemptCount(t *testing.T) {
	t.Parallel()

	repo, conn := newTestRepository(t)
	event := seedEvent(t, conn, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	if err := repo.MarkFailed(event.ID, errors.New("publish timeout")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkFailed(event.ID, errors.New("publish timeout")); err != nil {
		t.Fatalf("mark failed again: %v", err)
	}

	var reloaded models.OutboxEvent
	if err := conn.First(&reloaded, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.AttemptCount != 2 {
		t.Fatalf("attempt count: got %d, want 2", reloaded.AttemptCount)
	}
	if reloaded.LastError == nil || *reloaded.LastError != "publish timeout" {
		t.Fatal("last error not recorded")
	}
	if reloaded.PublishedAt != nil {
		t.Fatal("failed event must stay pending")
	}
}
