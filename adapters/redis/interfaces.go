package redis

import "errors"

// ErrClosed 表示生產者或消費者已關閉
var ErrClosed = errors.New("stream adapter is closed")

// IProducer 定義了 Producer 的操作介面
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IConsumer 定義了 Consumer 的操作介面
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}
