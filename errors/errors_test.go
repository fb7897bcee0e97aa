package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestWithDetail(t *testing.T) {
	err := New("error")
	withDetail := WithDetail(err, "detailed information")

	details := GetAllDetails(withDetail)
	require.Len(t, details, 1)
	assert.Equal(t, "detailed information", details[0])
}

func TestMarkStageFailed(t *testing.T) {
	cause := New("disk full")
	err := MarkStageFailed(cause, "Relationships")

	assert.True(t, IsStageFailed(err))
	assert.True(t, Is(err, cause), "original cause must stay in the chain")
	assert.Contains(t, err.Error(), "Relationships")
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, GetAllDetails(err), "stage: Relationships")
}

func TestMarkImportFailed(t *testing.T) {
	stageErr := MarkStageFailed(New("corrupt record"), "Nodes")
	err := MarkImportFailed(stageErr, "import aborted")

	assert.True(t, IsImportFailed(err))
	assert.True(t, IsStageFailed(err))
	assert.Contains(t, err.Error(), "corrupt record")
}

func TestMarkNil(t *testing.T) {
	assert.NoError(t, MarkImportFailed(nil, "ctx"))
	assert.NoError(t, MarkStageFailed(nil, "stage"))
	assert.False(t, IsImportFailed(nil))
}

func TestSentinelsSurviveFmtWrapping(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrUnknownID)
	assert.True(t, Is(err, ErrUnknownID))
	assert.False(t, Is(err, ErrDuplicateID))
}

func TestStackTrace(t *testing.T) {
	err := Wrap(New("base"), "context")
	assert.NotNil(t, GetStack(err))
}
