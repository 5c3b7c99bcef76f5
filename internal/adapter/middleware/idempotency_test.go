package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// helper: new Echo with the middleware and typical mutating/read routes
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, ttl))
	e.POST("/loans/:loan_id/repayment", handler)
	e.GET("/loans", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// simple handler to exercise respRecorder capture & saveFinal
func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"loan_id": c.Param("loan_id"), "status": "repayment_pending"})
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/loans", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, okHandler)

	path := "/loans/abc123/repayment"
	goodAt := time.Now().UTC().Format(time.RFC3339)

	cases := []struct {
		name string
		hdr  map[string]string
	}{
		{"missing Ax-Request-Id", map[string]string{
			"Ax-Request-At": goodAt,
			"Ax-User-Id":    "lender@example.com",
		}},
		{"invalid Ax-Request-Id", map[string]string{
			"Ax-Request-Id": "NOT-VALID",
			"Ax-Request-At": goodAt,
			"Ax-User-Id":    "lender@example.com",
		}},
		{"invalid Ax-Request-At format", map[string]string{
			"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"Ax-Request-At": "not-a-time",
			"Ax-User-Id":    "lender@example.com",
		}},
		{"Ax-Request-At too skewed", map[string]string{
			"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"Ax-Request-At": time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339),
			"Ax-User-Id":    "lender@example.com",
		}},
		{"missing Ax-User-Id", map[string]string{
			"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"Ax-Request-At": goodAt,
		}},
		{"invalid Ax-User-Id", map[string]string{
			"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"Ax-Request-At": goodAt,
			"Ax-User-Id":    "not an email",
		}},
	}
	for _, tc := range cases {
		rec := doReq(t, e, http.MethodPost, path, mkJSONBody(t, map[string]string{"method": "virement"}), tc.hdr)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s => want 400, got %d", tc.name, rec.Code)
		}
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	h := map[string]string{
		"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-User-Id":    "marie.dupont@example.com",
	}
	body := map[string]string{"method": "virement", "proof": "https://bank/receipt.pdf"}

	// First request -> goes through handler
	rec1 := doReq(t, e, http.MethodPost, "/loans/abc123/repayment", mkJSONBody(t, body), h)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request => want 200, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	// Second request with SAME headers & body -> replay stored response
	rec2 := doReq(t, e, http.MethodPost, "/loans/abc123/repayment", mkJSONBody(t, body), h)
	if rec2.Code != http.StatusOK {
		t.Fatalf("replay => want 200, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	method := http.MethodPost
	path := "/loans/abc123/repayment"
	routePath := "/loans/:loan_id/repayment"
	reqID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	userID := "marie.dupont@example.com"
	body := []byte(`{"method":"virement"}`)

	// Seed provisional "in-progress" entry so SetNX fails for the request
	key := buildKey(method, routePath, userID, reqID)
	entry := idempEntry{
		InProgress:  true,
		BodySHA256:  bodyHash(body),
		RequestID:   reqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	h := map[string]string{
		"Ax-Request-Id": reqID,
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-User-Id":    userID,
	}
	rec := doReq(t, e, method, path, bytes.NewReader(body), h)

	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	method := http.MethodPost
	path := "/loans/abc123/repayment"
	routePath := "/loans/:loan_id/repayment"
	reqID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	userID := "marie.dupont@example.com"

	body1 := []byte(`{"method":"virement"}`)
	body2 := []byte(`{"method":"especes"}`)

	// Seed a FINAL entry hashed from body1 so body2 triggers the mismatch branch
	key := buildKey(method, routePath, userID, reqID)
	final := idempEntry{
		InProgress:  false,
		Code:        http.StatusOK,
		Body:        []byte(`{"status":"repayment_pending"}`),
		BodySHA256:  bodyHash(body1),
		RequestID:   reqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, time.Minute*5); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	h := map[string]string{
		"Ax-Request-Id": reqID,
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-User-Id":    userID,
	}
	rec := doReq(t, e, method, path, bytes.NewReader(body2), h)

	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// Client pointing at a closed port → SetNX fails fast
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, okHandler)

	h := map[string]string{
		"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-User-Id":    "marie.dupont@example.com",
	}
	rec := doReq(t, e, http.MethodPost, "/loans/abc123/repayment", bytes.NewReader([]byte(`{}`)), h)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}
