package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindValidation:      http.StatusBadRequest,
		KindConflict:        http.StatusConflict,
		KindCapacity:        http.StatusConflict,
		KindNotFound:        http.StatusNotFound,
		KindPrecondition:    http.StatusPreconditionFailed,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range tests {
		t.Run(kind.String(), func(t *testing.T) {
			require.Equal(t, want, New(kind, "X").HTTPStatus())
		})
	}
}

func TestConvert(t *testing.T) {
	cause := errors.New("disk on fire")
	e := Convert(fmt.Errorf("saving: %w", cause))
	require.Equal(t, KindInternal, e.Kind)
	require.ErrorIs(t, e, cause)

	wrapped := fmt.Errorf("outer: %w", Conflict(CodeAlreadyClosed, "closed"))
	require.Equal(t, CodeAlreadyClosed, CodeOf(wrapped))
	require.Equal(t, KindConflict, KindOf(wrapped))
	require.Equal(t, "", CodeOf(nil))
}

func TestFieldsCollectsEveryFailure(t *testing.T) {
	var f Fields
	require.NoError(t, f.Err())

	f.Require(false, "title")
	f.Add("maxEntries", "OutOfRange", "maxEntries must be at least 1")

	err := f.Err()
	require.Error(t, err)

	e := Convert(err)
	require.Equal(t, KindValidation, e.Kind)
	require.Equal(t, "Required", e.Code)
	require.Len(t, e.Fields, 2)
	require.True(t, e.HasField("OutOfRange"))
	require.Contains(t, e.Message, "and 1 more")
}
