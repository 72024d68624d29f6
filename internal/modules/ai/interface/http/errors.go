package http

import (
	"errors"

	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
)

// toCodeError 把领域错误映射为 HTTP 响应码
func toCodeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := xerr.As(err); ok {
		return err
	}

	var engErr *entity.EngineError
	switch {
	case errors.Is(err, entity.ErrInvalidArgument):
		return xerr.Wrap(xerr.BadRequest, xerr.ErrParam.Message+": "+err.Error(), err)
	case errors.Is(err, entity.ErrLLMUnavailable):
		return xerr.Wrap(xerr.ServiceUnavailable, err.Error(), err)
	case errors.Is(err, entity.ErrRegistryClosed), errors.Is(err, service.ErrAsyncDisabled):
		return xerr.Wrap(xerr.ServiceUnavailable, err.Error(), err)
	case errors.Is(err, entity.ErrCollectionInit):
		zlog.Error("collection initialization failed", zap.Error(err))
		return xerr.Wrap(xerr.InternalServerError, xerr.ErrServerError.Message, err)
	case errors.As(err, &engErr):
		return xerr.Wrap(xerr.InternalServerError, engErr.Error(), err)
	}
	zlog.Error("unhandled error", zap.Error(err))
	return err
}
