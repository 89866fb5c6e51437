package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ISubscriber 是跨節點訊息來源的介面，
// 由 redis stream 的消費者實作
type ISubscriber[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

type managerOptions[T any] struct {
	logger     *slog.Logger
	subscriber ISubscriber[PublishRequest[T]]
}

type ManagerOption[T any] func(*managerOptions[T])

// WithLogger 設置日誌記錄器
func WithLogger[T any](logger *slog.Logger) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithSubscriber 設置跨節點的訊息來源
// 未設置時，只有透過 Publish 發布的本地訊息會被廣播
func WithSubscriber[T any](subscriber ISubscriber[PublishRequest[T]]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.subscriber = subscriber
	}
}

// connectionManager 管理多個 SSE 頻道的訂閱與廣播
// 訊息可以來自本地的 Publish，也可以來自跨節點的訂閱來源，
// 讓多個服務實例能夠協同運作
type connectionManager[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待所有 goroutine 完成
	active bool           // 標記 manager 是否正在運作中

	local      chan PublishRequest[T]
	subscriber ISubscriber[PublishRequest[T]]
	channels   map[string]IChannel[T] // 儲存所有活躍的頻道
}

// NewConnectionManager 建立一個新的連線管理器
func NewConnectionManager[T any](opts ...ManagerOption[T]) (IConnectionManager[T], error) {
	options := managerOptions[T]{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &connectionManager[T]{
		ctx:        ctx,
		cancel:     cancel,
		logger:     options.logger.With(slog.String("caller", "ConnectionManager")),
		local:      make(chan PublishRequest[T], 100),
		subscriber: options.subscriber,
		channels:   make(map[string]IChannel[T]),
		active:     true,
	}, nil
}

// Start 啟動連線管理器，開始處理訊息的接收與廣播
// 應在呼叫其他方法前先呼叫此方法
func (cm *connectionManager[T]) Start() {
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for {
			select {
			case <-cm.ctx.Done():
				return
			case msg := <-cm.local:
				cm.broadcast(msg)
			}
		}
	}()

	if cm.subscriber == nil {
		return
	}
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for {
			select {
			case <-cm.ctx.Done():
				return
			case msg, ok := <-cm.subscriber.Subscribe():
				if !ok {
					return
				}
				cm.broadcast(msg)
			}
		}
	}()
}

func (cm *connectionManager[T]) broadcast(msg PublishRequest[T]) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if channel, ok := cm.channels[msg.Channel]; ok {
		channel.Broadcast(msg.Message)
	}
}

// Done 停止連線管理器的運作
func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return
	}

	cm.active = false
	cm.cancel()
	cm.wg.Wait()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe 訂閱指定的頻道
// 返回用於接收訊息的唯讀通道，以及可能的錯誤
func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T]()
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布本地訊息到指定的頻道
func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.active {
		return context.Canceled
	}

	select {
	case cm.local <- PublishRequest[T]{Channel: channelName, Message: data}:
		return nil
	case <-cm.ctx.Done():
		return errors.New("connection manager is closed")
	}
}

// Unsubscribe 取消訂閱指定的頻道
func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}
