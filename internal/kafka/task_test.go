package kafka_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/kafka"
)

func TestEncodeEvent(t *testing.T) {
	t.Parallel()

	task := internal.Task{
		ID:        3,
		Title:     "buy milk",
		Completed: true,
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		msgType string
		task    internal.Task
	}{
		{"Created", kafka.EventCreated, task},
		{"Updated", kafka.EventUpdated, task},
		{"Deleted", kafka.EventDeleted, internal.Task{ID: 3, IsDeleted: true}},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := kafka.EncodeEvent(tt.msgType, tt.task)
			require.NoError(t, err)

			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(b, &raw))
			require.Contains(t, raw, "ID")
			require.Contains(t, raw, "Type")
			require.Contains(t, raw, "Value")

			evt, err := kafka.DecodeEvent(b)
			require.NoError(t, err)
			require.NotEmpty(t, evt.ID)
			require.Equal(t, tt.msgType, evt.Type)
			require.Equal(t, tt.task, evt.Value)
		})
	}
}

func TestEncodeEvent_UniqueIDs(t *testing.T) {
	t.Parallel()

	a, err := kafka.EncodeEvent(kafka.EventCreated, internal.Task{ID: 1})
	require.NoError(t, err)

	b, err := kafka.EncodeEvent(kafka.EventCreated, internal.Task{ID: 1})
	require.NoError(t, err)

	evtA, err := kafka.DecodeEvent(a)
	require.NoError(t, err)

	evtB, err := kafka.DecodeEvent(b)
	require.NoError(t, err)

	require.NotEqual(t, evtA.ID, evtB.ID)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	t.Parallel()

	_, err := kafka.DecodeEvent([]byte("not json"))
	require.Error(t, err)

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr))
	require.Equal(t, internal.ErrorCodeInvalidArgument, ierr.Code())
}
