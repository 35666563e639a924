package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/moneyshare/internal/models"
)

// toConnectError maps domain errors onto connect codes. Errors that are
// already connect errors pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}

	var ext *models.ExternalServiceError
	switch {
	case models.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case models.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &ext):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// fail logs err under op and returns it as a connect error. Caller
// mistakes are logged at warn level.
func fail(op string, err error, args ...any) error {
	args = append(args, "error", err)
	if models.IsValidation(err) || models.IsNotFound(err) {
		slog.Warn(op+" rejected", args...)
	} else {
		slog.Error(op+" failed", args...)
	}
	return toConnectError(err)
}

func validate(msg any) error {
	return models.ValidateStruct(msg)
}
