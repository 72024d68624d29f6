package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCollectionInit  = errors.New("collection initialization failed")
	ErrRegistryClosed  = errors.New("collection registry is closed")
	ErrLLMUnavailable  = errors.New("language model unavailable")
)

// Invalid 构造一个可以用 errors.Is(err, ErrInvalidArgument) 判断的校验错误
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// EngineError 向量引擎调用失败，保留集合名和操作
type EngineError struct {
	Op         string
	Collection string
	Err        error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s on collection %q failed: %v", e.Op, e.Collection, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func NewEngineError(op, collection string, err error) *EngineError {
	return &EngineError{Op: op, Collection: collection, Err: err}
}
