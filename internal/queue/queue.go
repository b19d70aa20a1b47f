package queue

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	"pokerhand/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, sub domain.Submission) error
	Close() error
}

type Handler func(ctx context.Context, sub domain.Submission) error

type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
	Close() error
}

func Encode(sub domain.Submission) ([]byte, error) {
	return msgpack.Marshal(sub)
}

func Decode(data []byte) (domain.Submission, error) {
	var sub domain.Submission
	err := msgpack.Unmarshal(data, &sub)
	return sub, err
}
