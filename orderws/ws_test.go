package orderws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mediloon/globals"

	"github.com/julienschmidt/httprouter"
)

func TestStatusSocketRequiresToken(t *testing.T) {
	globals.JwtSecret = []byte("test-secret")
	hub := NewHub()
	handler := StatusSocket(hub)

	r := httptest.NewRequest(http.MethodGet, "/ws/orders/sess-1", nil)
	w := httptest.NewRecorder()
	handler(w, r, httprouter.Params{{Key: "sessionid", Value: "sess-1"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/ws/orders/sess-1?token=garbage", nil)
	w = httptest.NewRecorder()
	handler(w, r, httprouter.Params{{Key: "sessionid", Value: "sess-1"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", w.Code)
	}
}
