package digest

import (
	"net/http"

	"digestly/internal/handler/http/auth"
	"digestly/internal/handler/http/respond"
)

// AskHandler handles POST /api/digest/questions. Answers use only the text
// the caller most recently summarized.
type AskHandler struct {
	Svc Summarizer
}

func (h AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	var req askRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.Svc.Ask(r.Context(), caller, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, askResponse{Answer: answer})
}
