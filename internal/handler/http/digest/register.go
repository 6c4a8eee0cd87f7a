package digest

import (
	"net/http"

	"digestly/internal/repository"
)

// Register registers the digest routes with mux. The creation history route
// is only served when repo is non-nil.
func Register(mux *http.ServeMux, svc Summarizer, resolver SourceResolver, repo repository.CreationRepository) {
	mux.Handle("POST /api/digest/summaries", SummarizeHandler{Svc: svc, Resolver: resolver})
	mux.Handle("POST /api/digest/questions", AskHandler{Svc: svc})
	if repo != nil {
		mux.Handle("GET /api/creations", CreationsHandler{Repo: repo})
	}
}
