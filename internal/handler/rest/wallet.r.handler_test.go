package hrest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"greenwallet-service/pkg/response"
	"greenwallet-service/pkg/xerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDomainErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{xerrors.ErrWalletNotFound, http.StatusNotFound},
		{xerrors.ErrNotFound, http.StatusNotFound},
		{xerrors.ErrValidation, http.StatusBadRequest},
		{xerrors.ErrInvalidAmount, http.StatusBadRequest},
		{xerrors.ErrNoteRequired, http.StatusBadRequest},
		{xerrors.ErrSameWallet, http.StatusBadRequest},
		{xerrors.ErrInsufficientBalance, http.StatusConflict},
		{xerrors.ErrNonZeroBalance, http.StatusConflict},
		{xerrors.ErrDuplicateWalletNumber, http.StatusConflict},
		{xerrors.ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)

			var body response.APIResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "error", body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRoutesRejectBadInputBeforeUsecase(t *testing.T) {
	// Nil usecases prove these requests fail during parsing, before any
	// business logic runs.
	h := NewWalletRestHandler(nil, nil)
	router := h.Routes()

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"non-numeric wallet id", http.MethodGet, "/abc", ""},
		{"zero wallet id", http.MethodGet, "/0", ""},
		{"negative wallet id", http.MethodDelete, "/-3", ""},
		{"non-numeric wallet number", http.MethodGet, "/number/xyz", ""},
		{"malformed create body", http.MethodPost, "/", "{not json"},
		{"malformed issue body", http.MethodPost, "/5/issue", "{"},
		{"malformed retire body", http.MethodPost, "/5/retire", "amount=10"},
		{"malformed transfer body", http.MethodPost, "/5/transfer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
