package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/crindex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/crindex/internal/usecase/search"
)

// Indexer mirrors content changes into the search index.
type Indexer interface {
	Index(ctx context.Context, changes []indexinguc.Change) ([]bulk.Result, error)
}

// QueryService creates search query builders.
type QueryService interface {
	Builder() *searchuc.Builder
	Query(anchor *node.Node) *searchuc.Builder
}

// Tree resolves node references sent by clients.
type Tree interface {
	NodeByIdentifier(ctx context.Context, identifier, workspace string, dims node.Dimensions) (*node.Node, error)
	NodeByPath(ctx context.Context, path, workspace string, dims node.Dimensions) (*node.Node, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server implements the HTTP API.
type Server struct {
	indexer Indexer
	search  QueryService
	tree    Tree
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates a new chi server.
func NewServer(indexer Indexer, search QueryService, tree Tree, hc HealthChecker, logger *zap.Logger) *Server {
	return &Server{indexer: indexer, search: search, tree: tree, health: hc, logger: logger}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/index", s.Index)
		r.Post("/search", s.Search)
		r.Post("/count", s.Count)
	})
	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
}

// Index handles POST /api/v1/index.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Changes) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "changes must not be empty")
		return
	}

	changes := make([]indexinguc.Change, 0, len(req.Changes))
	for _, c := range req.Changes {
		n, err := s.resolve(r.Context(), c.NodeRef)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		changes = append(changes, indexinguc.Change{Node: n, TargetWorkspace: c.TargetWorkspace})
	}

	results, err := s.indexer.Index(r.Context(), changes)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToDTO(results))
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	b, req, ok := s.builder(w, r)
	if !ok {
		return
	}
	var (
		res *searchuc.Result
		err error
	)
	if req.Cached {
		res, err = b.ExecuteCached(r.Context())
	} else {
		res, err = b.Execute(r.Context())
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResultToDTO(b, res))
}

// Count handles POST /api/v1/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	b, _, ok := s.builder(w, r)
	if !ok {
		return
	}
	n, err := b.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	resp := HealthResponse{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, result := range report.Checks {
		resp.Checks[name] = string(result)
	}
	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) builder(w http.ResponseWriter, r *http.Request) (*searchuc.Builder, SearchRequest, bool) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return nil, req, false
	}
	if req.Limit < 0 || req.From < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "from and limit must not be negative")
		return nil, req, false
	}

	b := s.search.Builder()
	if req.Anchor != nil {
		anchor, err := s.resolve(r.Context(), *req.Anchor)
		if err != nil {
			s.handleDomainError(w, err)
			return nil, req, false
		}
		b = s.search.Query(anchor)
	}
	b.Apply(specFromDTO(req))
	if err := b.Err(); err != nil {
		s.handleDomainError(w, err)
		return nil, req, false
	}
	return b, req, true
}

func (s *Server) resolve(ctx context.Context, ref NodeRef) (*node.Node, error) {
	dims := node.Dimensions(ref.Dimensions)
	if ref.Identifier != "" {
		return s.tree.NodeByIdentifier(ctx, ref.Identifier, ref.workspace(), dims)
	}
	return s.tree.NodeByPath(ctx, ref.Path, ref.workspace(), dims)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}
