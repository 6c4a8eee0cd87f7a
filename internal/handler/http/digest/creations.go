package digest

import (
	"net/http"
	"strconv"

	"digestly/internal/domain/entity"
	"digestly/internal/handler/http/auth"
	"digestly/internal/handler/http/respond"
	"digestly/internal/repository"
)

// CreationsHandler handles GET /api/creations.
//
// Query parameters:
//   - limit: maximum number of entries (the repository clamps it)
//   - published=true: list creations every caller marked as published
//     instead of the caller's own
type CreationsHandler struct {
	Repo repository.CreationRepository
}

func (h CreationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, respond.NewAppError(http.StatusBadRequest, "limit must be a positive integer", err))
			return
		}
		limit = n
	}

	var (
		list []*entity.Creation
		err  error
	)
	if published, _ := strconv.ParseBool(q.Get("published")); published {
		list, err = h.Repo.ListPublished(r.Context(), limit)
	} else {
		list, err = h.Repo.ListByUser(r.Context(), caller, limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	out := creationsResponse{Creations: make([]CreationDTO, 0, len(list))}
	for _, c := range list {
		out.Creations = append(out.Creations, toCreationDTO(c))
	}
	respond.JSON(w, http.StatusOK, out)
}
