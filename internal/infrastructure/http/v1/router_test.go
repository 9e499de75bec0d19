package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/alert"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/transfer"
	v1 "pharmstock/internal/infrastructure/http/v1"
	"pharmstock/internal/infrastructure/storage/memory"
	"pharmstock/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := memory.NewStore()
	ledger := batch.NewLedger(store.Batches(), store.Inventory(), store, store.Audit())
	picker := allocation.NewPicker(store.Batches(), ledger, store)

	return v1.NewRouter(v1.RouterConfig{
		Logger:    logger.Default(),
		Items:     store.Inventory(),
		Ledger:    ledger,
		Picker:    picker,
		Transfers: transfer.NewService(store.Transfers(), store.Batches(), ledger, store, store.Audit()),
		HomeUse: homeuse.NewService(store.HomeUse(), store.Inventory(), store.Batches(),
			ledger, store.Expenses(), store, store.Audit()),
		Alerts:    alert.NewService(store.Alerts(), store.Inventory()),
		Evaluator: alert.NewEvaluator(store.Alerts(), store.Batches()),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createItem(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name":           "Paracetamol 500mg",
		"wholesalePrice": "1.20",
		"retailPrice":    "2.50",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func addBatch(t *testing.T, router *gin.Engine, itemID, number string, qty int) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/batches", map[string]any{
		"batchNumber": number,
		"quantity":    qty,
		"expiryDate":  time.Now().UTC().AddDate(0, 0, 90).Format(time.RFC3339),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestItemAndBatchFlow(t *testing.T) {
	router := newTestRouter(t)

	itemID := createItem(t, router)
	addBatch(t, router, itemID, "LOT-001", 10)
	addBatch(t, router, itemID, "LOT-002", 5)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(15), decode(t, rec)["stock"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID+"/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)
	assert.Equal(t, float64(15), summary["totalQuantity"])
	assert.Len(t, summary["batches"], 2)
}

func TestCreateItemValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name": "No prices",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
}

func TestGetUnknownItemReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+id.New().String(), nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestAllocationEndpoints(t *testing.T) {
	router := newTestRouter(t)

	itemID := createItem(t, router)
	addBatch(t, router, itemID, "LOT-001", 10)

	// Planning does not mutate.
	rec := doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID+"/pick?quantity=4", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["total"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, nil, nil)
	assert.Equal(t, float64(10), decode(t, rec)["stock"])

	// Executing does.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/allocate",
		map[string]any{"quantity": 4}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, nil, nil)
	assert.Equal(t, float64(6), decode(t, rec)["stock"])

	// Shortage surfaces as 422 and changes nothing.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/allocate",
		map[string]any{"quantity": 100}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, rec)["code"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, nil, nil)
	assert.Equal(t, float64(6), decode(t, rec)["stock"])
}

func TestTransferEndpointRecordsUserFromHeader(t *testing.T) {
	router := newTestRouter(t)

	itemID := createItem(t, router)
	addBatch(t, router, itemID, "SRC", 10)
	addBatch(t, router, itemID, "DST", 1)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/inventory/"+itemID+"/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Batches []struct {
			BatchID     string `json:"batchId"`
			BatchNumber string `json:"batchNumber"`
		} `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Batches, 2)

	ids := map[string]string{}
	for _, b := range summary.Batches {
		ids[b.BatchNumber] = b.BatchID
	}

	userID := id.New().String()
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transfers", map[string]any{
		"sourceBatchId": ids["SRC"],
		"targetBatchId": ids["DST"],
		"quantity":      3,
		"reason":        "consolidation",
	}, map[string]string{"X-User-ID": userID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, userID, decode(t, rec)["userId"])

	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/transfers?batchId=%s&limit=10", ids["SRC"]), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Items []struct {
			Quantity int64 `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, int64(3), history.Items[0].Quantity)
}
