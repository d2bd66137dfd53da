package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()
	publisher := NewWatermillEventPublisher(pubSub, "quiz-events", discardLogger())

	require.NoError(t, pubSub.Publish("quiz-events", message.NewMessage("broken", []byte("{not json"))))
	require.NoError(t, publisher.Publish(ctx, NewAttemptCompletedEvent(AttemptCompletedEvent{
		AttemptID:    "tst0000000001",
		QuizID:       3,
		ScorePercent: 80,
		Passed:       true,
	})))

	var received []*ReceivedEvent
	err := Consume(ctx, pubSub, "quiz-events", discardLogger(), func(_ context.Context, event *ReceivedEvent) error {
		received = append(received, event)
		cancel()
		return nil
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, EventAttemptCompleted, received[0].Type)

	var payload AttemptCompletedEvent
	require.NoError(t, json.Unmarshal(received[0].Data, &payload))
	assert.Equal(t, "tst0000000001", payload.AttemptID)
	assert.Equal(t, 80.0, payload.ScorePercent)
	assert.True(t, payload.Passed)
}

func TestDecodeEvent(t *testing.T) {
	msg := message.NewMessage("m-1", []byte(`{"id":"m-1","data":{"count":2}}`))
	msg.Metadata.Set("event_type", string(EventAttemptsAbandoned))

	event, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, EventAttemptsAbandoned, event.Type)
	assert.JSONEq(t, `{"count":2}`, string(event.Data))

	_, err = DecodeEvent(message.NewMessage("m-2", []byte("nope")))
	assert.Error(t, err)
}
