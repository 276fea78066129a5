package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/phonebook-be/internal/apperr"
)

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func TestWrite_DomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	apperr.Write(rec, apperr.Conflict("Email is already in use"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email is already in use", decodeMessage(t, rec))
}

func TestWrite_WrappedDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	apperr.Write(rec, fmt.Errorf("update subscription: %w", apperr.NotFound("Not found")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeMessage(t, rec))
}

func TestWrite_UnknownErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	apperr.Write(rec, errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal details must never reach the caller.
	assert.Equal(t, "Internal server error", decodeMessage(t, rec))
}

func TestNew_DefaultMessage(t *testing.T) {
	err := apperr.New(http.StatusNotFound, "")
	assert.Equal(t, "Not Found", err.Message)
	assert.Equal(t, "Not Found", err.Error())
}
