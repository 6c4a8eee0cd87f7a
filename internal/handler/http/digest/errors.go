package digest

import (
	"context"
	"errors"
	"net/http"

	"digestly/internal/domain/entity"
	"digestly/internal/handler/http/respond"
	"digestly/internal/infra/source"
	"digestly/internal/resilience/circuitbreaker"
	"digestly/internal/resilience/retry"
	digestUC "digestly/internal/usecase/digest"
)

// errUnauthenticated is returned when a protected handler runs without a caller.
var errUnauthenticated = respond.NewAppError(http.StatusUnauthorized, "unauthorized", nil)

// classify maps use case and acquisition errors to the status and message
// callers see. The original error stays wrapped for logging.
func classify(err error) *respond.AppError {
	var appErr *respond.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ve *entity.ValidationError
	var ce *digestUC.CompletionError
	var he *retry.HTTPError
	switch {
	case errors.As(err, &ve):
		return respond.NewAppError(http.StatusBadRequest, ve.Message, err)
	case errors.Is(err, digestUC.ErrEmptyInput),
		errors.Is(err, digestUC.ErrEmptyQuestion),
		errors.Is(err, digestUC.ErrInputTooLarge),
		errors.Is(err, entity.ErrInvalidOrigin):
		return respond.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, digestUC.ErrNoContext):
		return respond.NewAppError(http.StatusConflict,
			"no summarized text found; summarize something before asking questions", err)

	case errors.Is(err, source.ErrInvalidURL), errors.Is(err, source.ErrPrivateIP):
		return respond.NewAppError(http.StatusBadRequest, "url cannot be fetched", err)
	case errors.Is(err, source.ErrNoContent):
		return respond.NewAppError(http.StatusUnprocessableEntity, "no readable content found at url", err)
	case errors.Is(err, source.ErrBodyTooLarge):
		return respond.NewAppError(http.StatusUnprocessableEntity, "source document is too large", err)

	case errors.Is(err, digestUC.ErrCompletionUnavailable), circuitbreaker.IsRejection(err):
		return respond.NewAppError(http.StatusServiceUnavailable,
			"service temporarily unavailable, please retry later", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, source.ErrTimeout):
		return respond.NewAppError(http.StatusGatewayTimeout, "request timed out", err)
	case errors.As(err, &ce):
		return respond.NewAppError(http.StatusBadGateway, "completion service failed", err)
	case errors.Is(err, source.ErrTooManyRedirects), errors.As(err, &he):
		return respond.NewAppError(http.StatusBadGateway, "source could not be fetched", err)
	}
	return respond.NewAppError(http.StatusInternalServerError, "internal server error", err)
}

func writeError(w http.ResponseWriter, err error) {
	respond.SafeErrorV2(w, http.StatusInternalServerError, classify(err))
}
