package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestProducerConsumerRoundTrip 透過真實的stream驗證
// 生產者寫入的訊息可以被消費者讀到並還原
func TestProducerConsumerRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	const stream = "roundtrip-stream"
	producer, err := NewProducer[TestMessage](client, stream)
	require.NoError(t, err)
	consumer, err := NewConsumer[TestMessage](
		client,
		stream,
		WithConsumerBlockTimeout[TestMessage](100*time.Millisecond),
	)
	require.NoError(t, err)

	consumer.Start()
	defer consumer.Close()
	producer.Start()
	defer producer.Close()

	want := TestMessage{ID: "msg-1", Data: "hello"}

	// 消費者從最新的位置開始讀取，重送直到訊息落在讀取視窗內
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := producer.Publish(want); err != nil {
					return
				}
			}
		}
	}()

	select {
	case got := <-consumer.Subscribe():
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
