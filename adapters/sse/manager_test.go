package sse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"silentbid/adapters/sse"
)

// fakeSubscriber 模擬跨節點的訊息來源
type fakeSubscriber struct {
	ch chan sse.PublishRequest[Message]
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{ch: make(chan sse.PublishRequest[Message], 10)}
}

func (s *fakeSubscriber) Start()                                    {}
func (s *fakeSubscriber) Subscribe() <-chan sse.PublishRequest[Message] { return s.ch }
func (s *fakeSubscriber) Close()                                    { close(s.ch) }

func TestConnectionManager(t *testing.T) {
	defer goleak.VerifyNone(t)

	cm, err := sse.NewConnectionManager[Message]()
	require.NoError(t, err)
	cm.Start()
	defer cm.Done()

	// 測試訂閱
	ch, err := cm.Subscribe("test_channel")
	assert.NoError(t, err)
	assert.NotNil(t, ch)

	// 測試發布訊息
	msg := Message{Data: "test message"}
	err = cm.Publish("test_channel", msg)
	assert.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, msg, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
	}

	// 測試取消訂閱
	cm.Unsubscribe("test_channel", ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestConnectionManager_SubscriberFanout(t *testing.T) {
	defer goleak.VerifyNone(t)

	subscriber := newFakeSubscriber()
	cm, err := sse.NewConnectionManager[Message](
		sse.WithSubscriber[Message](subscriber),
	)
	require.NoError(t, err)
	cm.Start()
	defer cm.Done()

	ch, err := cm.Subscribe("item-1")
	require.NoError(t, err)

	// 只有訂閱對應頻道的人會收到訊息
	other, err := cm.Subscribe("item-2")
	require.NoError(t, err)

	subscriber.ch <- sse.PublishRequest[Message]{
		Channel: "item-1",
		Message: Message{Data: "new bid"},
	}

	select {
	case received := <-ch:
		assert.Equal(t, "new bid", received.Data)
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
	}

	select {
	case <-other:
		t.Fatal("message leaked to the wrong channel")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectionManager_DoneRejectsFurtherUse(t *testing.T) {
	defer goleak.VerifyNone(t)

	cm, err := sse.NewConnectionManager[Message]()
	require.NoError(t, err)
	cm.Start()
	cm.Done()

	_, err = cm.Subscribe("test_channel")
	assert.Error(t, err)

	err = cm.Publish("test_channel", Message{Data: "late"})
	assert.Error(t, err)
}
