package apperr

import (
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation with field",
			err:  Validationf("quantity", "must be greater than 0, got %d", -1),
			want: "quantity: must be greater than 0, got -1",
		},
		{
			name: "not found",
			err:  NotFoundErr("order", 42),
			want: "order 42 not found",
		},
		{
			name: "database with op",
			err:  DB("insert order", errors.New("duplicate key")),
			want: "insert order: duplicate key",
		},
		{
			name: "connection",
			err:  Conn("open pool", errors.New("dial tcp: refused")),
			want: "open pool: database unavailable: dial tcp: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", Validationf("", "empty cart"))

	assert.Equal(t, Validation, KindOf(wrapped))
	assert.Equal(t, NotFound, KindOf(NotFoundErr("cart line", 1)))
	assert.Equal(t, Connection, KindOf(Conn("ping", errors.New("timeout"))))
	assert.Equal(t, Database, KindOf(errors.New("unclassified")))
}

func TestIs_MatchesKindSentinels(t *testing.T) {
	err := errors.Wrap(NotFoundErr("order", 7), "get order")

	require.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)

	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "order", ae.Entity)
	assert.Equal(t, int64(7), ae.ID)
}

func TestDB_KeepsClassification(t *testing.T) {
	require.NoError(t, DB("noop", nil))

	inner := Validationf("store_id", "must be positive")
	assert.Same(t, inner, DB("insert", inner))

	cause := errors.New("boom")
	err := DB("insert", cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrDatabase)
}
