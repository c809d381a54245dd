package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	branchsvc "github.com/mercatura-tech/stockflow-backend/internal/branches"
	productsvc "github.com/mercatura-tech/stockflow-backend/internal/products"
	stocksvc "github.com/mercatura-tech/stockflow-backend/internal/stock"
	transfersvc "github.com/mercatura-tech/stockflow-backend/internal/transfers"
	pkgauth "github.com/mercatura-tech/stockflow-backend/pkg/auth"
	"github.com/mercatura-tech/stockflow-backend/pkg/config"
	dbpkg "github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "stockflow",
			ExpirationMinutes: 60,
		},
		Idempotency: config.IdempotencyConfig{DefaultTTLMinutes: 1440, MaxTTLMinutes: 10080},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Branch{}, &models.Product{},
		&models.StockLot{}, &models.StockLedgerEntry{}, &models.BranchStock{},
		&models.Transfer{}, &models.TransferItem{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := dbpkg.FromGorm(conn)
	cfg := testConfig()

	router := NewRouter(Deps{
		Config:    cfg,
		Logger:    nil,
		DB:        stubPinger{},
		Redis:     nil,
		Stock:     stocksvc.NewService(client, stocksvc.NewRepository(conn), nil, nil, nil),
		Transfers: transfersvc.NewService(client, transfersvc.NewRepository(conn), nil, nil, nil),
		Products:  productsvc.NewService(productsvc.NewRepository(conn), nil),
		Branches:  branchsvc.NewService(conn),
	})
	return router, conn, cfg
}

func mintToken(t *testing.T, cfg *config.Config, tenantID, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		TenantID: tenantID,
		Role:     "manager",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-StockFlow-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/branches/", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestReceiveStockEndToEnd(t *testing.T) {
	t.Parallel()
	router, conn, cfg := newTestRouter(t)

	tenantID := uuid.New()
	branch := models.Branch{ID: uuid.New(), TenantID: tenantID, Code: "WH1", Name: "Main", IsActive: true}
	product := models.Product{ID: uuid.New(), TenantID: tenantID, SKU: "SKU-1", Name: "Widget", Unit: "unit", Version: 1, IsActive: true}
	if err := conn.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	token := mintToken(t, cfg, tenantID, uuid.New())
	body := fmt.Sprintf(`{"branch_id":%q,"product_id":%q,"qty":25,"unit_cost":"3.50"}`, branch.ID, product.ID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/receive", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			ProductStock struct {
				QtyOnHand int `json:"qty_on_hand"`
			} `json:"product_stock"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.ProductStock.QtyOnHand != 25 {
		t.Fatalf("expected 25 on hand, got %d", payload.Data.ProductStock.QtyOnHand)
	}
}

func TestTenantIsolationOnTransfers(t *testing.T) {
	t.Parallel()
	router, conn, cfg := newTestRouter(t)

	ownerTenant := uuid.New()
	transfer := models.Transfer{
		ID:                  uuid.New(),
		TenantID:            ownerTenant,
		SourceBranchID:      uuid.New(),
		DestinationBranchID: uuid.New(),
		Status:              enums.TransferStatusRequested,
		Priority:            enums.TransferPriorityNormal,
		RequestedByUserID:   uuid.New(),
	}
	if err := conn.Create(&transfer).Error; err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	token := mintToken(t, cfg, uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfers/"+transfer.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign tenant, got %d: %s", resp.Code, resp.Body.String())
	}
}
