package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusOK, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteRedirectKeepsBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRedirect(w, "http://localhost/api/library/payments/create_payment", map[string]string{"id": "b1"})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost/api/library/payments/create_payment", w.Header().Get("Location"))
	assert.JSONEq(t, `{"data":{"id":"b1"}}`, w.Body.String())
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	assert.Equal(t, "bad input", body.Error.Message)
	assert.NotNil(t, body.Error.Details)
}

func TestWriteErrorDomainCodes(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		msg    string
		status int
	}{
		{pkgerrors.CodePendingPayment, "You have at least one pending payment - borrowing is forbidden", http.StatusForbidden},
		{pkgerrors.CodeAlreadyReturned, "Books have already been returned.", http.StatusBadRequest},
		{pkgerrors.CodeDuplicatePayment, "Fine already exist for this Borrowing", http.StatusBadRequest},
		{pkgerrors.CodeNotOverdue, "Borrowing is not overdue", http.StatusBadRequest},
		{pkgerrors.CodeUnavailable, "Book Emma isn't available for borrowing today.", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, pkgerrors.New(tc.code, tc.msg))

			assert.Equal(t, tc.status, w.Code)
			var body types.ErrorEnvelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tc.msg, body.Error.Message)
		})
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	var out bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &out})
	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.Nil(t, body.Error.Details)
	assert.Contains(t, out.String(), "request.error")
}
