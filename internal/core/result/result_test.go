package result

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureAlwaysCarriesCode(t *testing.T) {
	r := Failure[int](CodeNone, "")
	assert.False(t, r.IsSuccess)
	assert.Equal(t, CodeInternalError, r.ErrorCode)
	assert.Equal(t, "Internal Server Error", r.Message)
}

func TestPagedTotals(t *testing.T) {
	r := Paged([]string{"a", "b"}, 2, 2, 5, "ok")
	assert.True(t, r.IsSuccess)
	assert.Equal(t, 3, r.Data.TotalPages)
	assert.Equal(t, int64(5), r.Data.TotalCount)

	empty := Paged[string](nil, 9, 10, 5, "")
	assert.NotNil(t, empty.Data.Items)
	assert.Empty(t, empty.Data.Items)
}

func TestFromErrorKeepsClassification(t *testing.T) {
	err := fmt.Errorf("load coupon: %w", Wrap(CodeDatabaseError, "database error", errors.New("conn reset")))
	r := FromError[struct{}](err)
	assert.Equal(t, CodeDatabaseError, r.ErrorCode)
	assert.Equal(t, "database error", r.Message)

	r = FromError[struct{}](errors.New("boom"))
	assert.Equal(t, CodeInternalError, r.ErrorCode)
	assert.NotContains(t, r.Message, "boom")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, CodeNone.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeDuplicateEntry.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("Weird").HTTPStatus())
}
