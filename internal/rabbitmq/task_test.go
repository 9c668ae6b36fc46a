package rabbitmq_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/rabbitmq"
)

func TestEncodeTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task internal.Task
	}{
		{
			"Created",
			internal.Task{ID: 3, Title: "buy milk", CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		},
		{
			"Updated",
			internal.Task{ID: 3, Title: "buy milk", Completed: true, CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		},
		{
			"Deleted",
			internal.Task{ID: 3, IsDeleted: true},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := rabbitmq.EncodeTask(tt.task)
			require.NoError(t, err)

			got, err := rabbitmq.DecodeTask(b)
			require.NoError(t, err)
			require.Equal(t, tt.task, got)
		})
	}
}

func TestDecodeTask_Invalid(t *testing.T) {
	t.Parallel()

	_, err := rabbitmq.DecodeTask([]byte("garbage"))
	require.Error(t, err)

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr))
	require.Equal(t, internal.ErrorCodeInvalidArgument, ierr.Code())
}
