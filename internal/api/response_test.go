package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/FinAssist/internal/models"
)

func TestWriteJSONResponseFallsBackOnMarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	// Channels cannot be marshaled, forcing the fallback path.
	writeJSONResponse(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var out models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("fallback body is not valid JSON: %v", err)
	}
	if out.Status != string(models.APIStatusError) {
		t.Errorf("fallback status field = %q", out.Status)
	}
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, http.StatusNotFound, "no such thing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var out models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Status != string(models.APIStatusError) || out.Message != "no such thing" {
		t.Errorf("envelope = %+v", out)
	}
}
