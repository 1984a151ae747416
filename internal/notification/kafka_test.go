package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Event
	err  error
}

func (s *fakeSender) Send(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ev)
	return s.err
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	payload, err := json.Marshal(sampleEvent("deposit_paid"))
	require.NoError(t, err)

	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: payload},
		{Offset: 2, Value: []byte("{not json")},
		{Offset: 3, Value: payload},
	}}
	sender := &fakeSender{}
	c := newConsumer(reader, sender, nil)

	require.NoError(t, c.Consume(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "deposit_paid", sender.sent[0].Type)
	assert.Equal(t, "BK12345678ABCDEF", sender.sent[0].BookingRef)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestConsumer_SendFailureStillCommits(t *testing.T) {
	payload, _ := json.Marshal(sampleEvent("cancelled"))
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 9, Value: payload}}}
	c := newConsumer(reader, &fakeSender{err: errors.New("boom")}, nil)

	require.NoError(t, c.Consume(context.Background()))
	assert.Equal(t, []int64{9}, reader.committed)
}
