package digest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"digestly/internal/domain/entity"
	"digestly/internal/handler/http/auth"
	"digestly/internal/handler/http/respond"
	"digestly/internal/observability/logging"
	digestUC "digestly/internal/usecase/digest"
)

// Summarizer is the digest use case as seen by the handlers.
type Summarizer interface {
	Summarize(ctx context.Context, in digestUC.SummarizeInput) (*digestUC.SummaryResult, error)
	Ask(ctx context.Context, callerID, question string) (string, error)
}

// SourceResolver turns a URL into source text.
type SourceResolver interface {
	Resolve(ctx context.Context, rawURL string) (entity.SourceText, error)
}

// SummarizeHandler handles POST /api/digest/summaries.
// Exactly one of text or url must be given. A url is fetched and its origin
// is decided by the resolver; origin only applies to raw text.
type SummarizeHandler struct {
	Svc      Summarizer
	Resolver SourceResolver
}

func (h SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	var req summarizeRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	var (
		src   entity.SourceText
		label string
	)
	switch {
	case rawURL != "" && req.Text != "":
		writeError(w, respond.NewAppError(http.StatusBadRequest, "provide either text or url, not both", nil))
		return
	case rawURL != "":
		if err := entity.ValidateSourceURL(rawURL); err != nil {
			writeError(w, err)
			return
		}
		if h.Resolver == nil {
			writeError(w, errors.New("source resolver not configured"))
			return
		}
		resolved, err := h.Resolver.Resolve(ctx, rawURL)
		if err != nil {
			logging.WithRequestID(ctx, slog.Default()).Warn("source acquisition failed",
				slog.String("caller_id", caller),
				slog.String("url", rawURL),
				slog.Any("error", err))
			writeError(w, err)
			return
		}
		src, label = resolved, rawURL
	default:
		origin, err := entity.ParseOrigin(req.Origin)
		if err != nil {
			writeError(w, err)
			return
		}
		src = entity.NewSourceText(req.Text, origin)
	}

	res, err := h.Svc.Summarize(ctx, digestUC.SummarizeInput{
		CallerID: caller,
		Source:   src,
		Detail:   entity.ParseDetailLevel(req.Detail),
		Label:    label,
		Publish:  req.Publish,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
