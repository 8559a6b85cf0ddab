package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
)

func TestRedeemHandlerUnauthenticated(t *testing.T) {
	h := NewHandler(NewService(nil, nil))

	body, _ := json.Marshal(redeemRequest{Code: "WELCOME10"})
	req := httptest.NewRequest(http.MethodPost, "/redeem", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Redeem(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRedeemHandlerInvalidBody(t *testing.T) {
	h := NewHandler(NewService(nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/redeem", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New()))
	rr := httptest.NewRecorder()

	h.Redeem(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

// Malformed codes are rejected before any lookup, with the same generic
// message as unknown codes.
func TestRedeemHandlerMalformedCode(t *testing.T) {
	h := NewHandler(NewService(nil, nil))

	body, _ := json.Marshal(redeemRequest{Code: "no spaces allowed!"})
	req := httptest.NewRequest(http.MethodPost, "/redeem", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New()))
	rr := httptest.NewRecorder()

	h.Redeem(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Error.Message != "invalid or expired code" {
		t.Fatalf("expected generic message, got %q", out.Error.Message)
	}
}
