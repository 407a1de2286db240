package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	cases := []struct {
		code string
		want Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeIndexStale, CategoryIndex},
		{ErrCodeEmbedderFailed, CategoryExternal},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
	}
	for _, tc := range cases {
		e := New(tc.code, "msg", nil)
		assert.Equal(t, tc.want, e.Category, tc.code)
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	e := New(ErrCodeVectorStoreUnavailable, "qdrant down", cause)

	assert.ErrorIs(t, e, cause)
	assert.True(t, errors.Is(e, &Error{Code: ErrCodeVectorStoreUnavailable}))
	assert.False(t, errors.Is(e, &Error{Code: ErrCodeEmbedderFailed}))
}

func TestExternal_CarriesServiceContext(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	e := External(ErrCodeEmbedderUnavailable, "ollama", "embed", cause)

	assert.Equal(t, "ollama", e.Details["service"])
	assert.Equal(t, "embed", e.Details["operation"])
	assert.True(t, IsExternal(e))
	assert.True(t, IsExternal(fmt.Errorf("wrapped: %w", e)))
	assert.False(t, IsExternal(ConfigError("bad value")))
	assert.False(t, IsExternal(nil))
}

func TestGetCode(t *testing.T) {
	e := ValidationError("bad input")
	assert.Equal(t, ErrCodeInvalidInput, GetCode(e))
	assert.Equal(t, ErrCodeInvalidInput, GetCode(fmt.Errorf("wrap: %w", e)))
	assert.Empty(t, GetCode(fmt.Errorf("plain")))
	assert.Empty(t, GetCode(nil))
}

func TestWrap_NilIsNil(t *testing.T) {
	require.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail_Chains(t *testing.T) {
	e := New(ErrCodeIndexLocked, "locked", nil).
		WithDetail("lock_path", "/tmp/x.lock").
		WithDetail("pid", "123")
	assert.Len(t, e.Details, 2)
}
