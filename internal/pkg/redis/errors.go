package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Predefined errors
var (
	ErrNil           = redis.Nil // key does not exist
	ErrClosed        = errors.New("redis: client is closed")
	ErrInvalidConfig = errors.New("redis: invalid configuration")
)

// IsNil reports whether err means the key does not exist
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// IsClosed reports whether err means the client is closed
func IsClosed(err error) bool {
	return errors.Is(err, redis.ErrClosed) || errors.Is(err, ErrClosed)
}
