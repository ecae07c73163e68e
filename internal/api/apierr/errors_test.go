package apierr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karstgames/savepoint/internal/model"
)

// Every sentinel error the services can return. If a new one is added to
// model, it must get a row in the mapping table; this list keeps the two in
// sync.
var allSentinels = []error{
	model.ErrInvalidCredentials,
	model.ErrAccountBanned,
	model.ErrInvalidToken,
	model.ErrTokenNotExpiring,
	model.ErrNotPermitted,
	model.ErrNotUpgraded,
	model.ErrCredentialFormat,
	model.ErrPaymentFormat,
	model.ErrInvalidSlot,
	model.ErrInvalidPage,
	model.ErrPageNotFound,
	model.ErrUsernameTaken,
	model.ErrAlreadyUpgraded,
	model.ErrAlreadyBanned,
	model.ErrNotBanned,
	model.ErrAccountNotFound,
	model.ErrSaveDataNotFound,
}

func TestEverySentinelIsMapped(t *testing.T) {
	for _, sentinel := range allSentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			he := toHTTPError(sentinel)
			assert.NotEqual(t, http.StatusInternalServerError, he.status,
				"sentinel falls through to the internal error default")
			assert.NotEqual(t, CodeInternalError, he.apiError.Code)
		})
	}
}

func TestMappingHasNoDuplicates(t *testing.T) {
	seen := map[error]bool{}
	for _, m := range mapping {
		assert.False(t, seen[m.sentinel], "duplicate row for %v", m.sentinel)
		seen[m.sentinel] = true
	}
	assert.Len(t, mapping, len(allSentinels))
}

func TestWriteErrorWrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, newWrapped(model.ErrUsernameTaken))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeUsernameTaken, resp.Error.Code)
}

func TestWriteErrorUnknownErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	// Internal details never reach the wire
	assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
}

func TestWriteErrorStoreErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.NewStoreError("08006", assert.AnError))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Error.Message, "08006")
}

type wrapped struct {
	err error
}

func newWrapped(err error) error { return &wrapped{err: err} }
func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
