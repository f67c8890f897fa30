package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/fitness"
	"github.com/formday/formday/internal/notify"
	"github.com/formday/formday/internal/prayer"
)

// testEnv bundles the handlers' collaborators over a throwaway database
type testEnv struct {
	mux        *http.ServeMux
	kv         *database.KVStore
	engine     *fitness.Engine
	prayers    *prayer.Service
	permission *notify.PermissionStore
}

func newTestEnv(t *testing.T, prayerBaseURL string) *testEnv {
	t.Helper()

	db, err := database.New(database.NewDefaultOptions(filepath.Join(t.TempDir(), "handlers-test.db")))
	require.NoError(t, err)
	require.NoError(t, db.MigrateDatabase())
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	kv, err := database.NewKVStore(db)
	require.NoError(t, err)

	engine := fitness.NewEngine(kv)
	require.NoError(t, engine.Hydrate())

	prayers := prayer.NewService(kv, prayer.Options{
		BaseURL: prayerBaseURL,
		City:    "London",
		Country: "UK",
		Method:  2,
	})
	require.NoError(t, prayers.Hydrate())

	permission := notify.NewPermissionStore(kv)
	require.NoError(t, permission.Hydrate())

	mux := http.NewServeMux()
	base := NewBaseHandler(mux)
	base.RegisterRoutes()
	NewDayHandler(base, engine).RegisterRoutes()
	NewPlanHandler(base, engine).RegisterRoutes()
	NewPrayerHandler(base, prayers, permission).RegisterRoutes()
	NewAnalyticsHandler(base, engine).RegisterRoutes()

	return &testEnv{mux: mux, kv: kv, engine: engine, prayers: prayers, permission: permission}
}

// do runs one request through the mux and returns the recorded response
func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData unpacks the success envelope into dst
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

// decodeError unpacks the error envelope
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}
