package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"agencyboard/internal/board"
	"agencyboard/internal/documents"
	"agencyboard/internal/logging"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/webhooks"
)

// Options wires a Server to its collaborators. Documents and Webhooks may be
// nil; their routes then answer 503.
type Options struct {
	Bind         string
	Token        string
	Version      string
	DatabasePath string
	URLTTL       time.Duration
	MaxBodyBytes int64
	Coordinators []*board.Coordinator
	Documents    *documents.Store
	Webhooks     *webhooks.Client
	Logger       *slog.Logger
}

// Server is the board HTTP API.
type Server struct {
	bind         string
	token        string
	version      string
	databasePath string
	urlTTL       time.Duration
	maxBodyBytes int64
	coords       map[pipeline.Board]*board.Coordinator
	order        []pipeline.Board
	docs         *documents.Store
	hooks        *webhooks.Client
	logger       *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

const (
	defaultURLTTL    = time.Hour
	defaultBodyLimit = 1 << 20
)

// NewServer builds the API. At least one coordinator is required.
func NewServer(opts Options) (*Server, error) {
	if len(opts.Coordinators) == 0 {
		return nil, errors.New("api server requires at least one board")
	}
	s := &Server{
		bind:         strings.TrimSpace(opts.Bind),
		token:        strings.TrimSpace(opts.Token),
		version:      opts.Version,
		databasePath: opts.DatabasePath,
		urlTTL:       opts.URLTTL,
		maxBodyBytes: opts.MaxBodyBytes,
		coords:       make(map[pipeline.Board]*board.Coordinator, len(opts.Coordinators)),
		docs:         opts.Documents,
		hooks:        opts.Webhooks,
		logger:       logging.NewComponentLogger(opts.Logger, "api-server"),
	}
	if s.urlTTL <= 0 {
		s.urlTTL = defaultURLTTL
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultBodyLimit
	}
	for _, coord := range opts.Coordinators {
		if coord == nil {
			continue
		}
		if _, dup := s.coords[coord.Board()]; dup {
			return nil, fmt.Errorf("board %s registered twice", coord.Board())
		}
		s.coords[coord.Board()] = coord
		s.order = append(s.order, coord.Board())
	}
	sort.SliceStable(s.order, func(i, j int) bool { return boardRank(s.order[i]) < boardRank(s.order[j]) })

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, authMiddleware(s.token, withRequestContext(h)))
	}
	route("GET /api/status", s.handleStatus)
	route("GET /api/boards", s.handleBoards)
	route("GET /api/boards/{board}", s.handleBoard)
	route("POST /api/boards/{board}/refresh", s.handleRefresh)
	route("POST /api/boards/{board}/records", s.handleCreateRecord)
	route("GET /api/boards/{board}/records/{id}", s.handleRecord)
	route("DELETE /api/boards/{board}/records/{id}", s.handleRemoveRecord)
	route("GET /api/boards/{board}/records/{id}/moves", s.handleMoves)
	route("POST /api/boards/{board}/records/{id}/move", s.handleMove)
	route("GET /api/documents/{folder}", s.handleListDocuments)
	route("POST /api/documents/{folder}", s.handleUploadDocument)
	route("DELETE /api/documents/{folder}/{name}", s.handleDeleteDocument)
	route("GET /api/documents/{folder}/{name}/url", s.handleDocumentURL)
	route("POST /api/webhooks/meeting", s.handleMeeting)
	route("POST /api/webhooks/contract", s.handleContract)
	mux.HandleFunc("GET /files/{folder}/{name}", s.handleSignedFile)
	s.handler = mux

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func boardRank(b pipeline.Board) int {
	for i, known := range pipeline.Boards() {
		if known == b {
			return i
		}
	}
	return len(pipeline.Boards())
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.String(logging.FieldEventType, "api_serve_failed"),
				logging.String(logging.FieldErrorHint, "check the bind address"),
				logging.Error(err),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) coordinator(w http.ResponseWriter, r *http.Request) (*board.Coordinator, bool) {
	name := r.PathValue("board")
	b, ok := pipeline.ParseBoard(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown board %q", name)})
		return nil, false
	}
	coord, ok := s.coords[b]
	if !ok {
		s.writeError(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("board %s is not served", b)})
		return nil, false
	}
	return coord, true
}

// ensureLoaded performs the first fetch of a board on demand.
func (s *Server) ensureLoaded(w http.ResponseWriter, r *http.Request, coord *board.Coordinator) bool {
	if coord.Loaded() {
		return true
	}
	if _, err := coord.Refresh(r.Context()); err != nil {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "board load failed",
			"board_load_failed",
			logging.Board(string(coord.Board())),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database path and permissions"),
			logging.String(logging.FieldImpact, "board shows no data"),
		)
		s.writeError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "board data unavailable", Detail: err.Error()})
		return false
	}
	return true
}

func (s *Server) summaries() []BoardSummary {
	out := make([]BoardSummary, 0, len(s.order))
	for _, b := range s.order {
		coord := s.coords[b]
		reg := coord.Registry()
		stages := reg.Stages()
		dto := BoardSummary{Board: string(b), Guarded: reg.Guarded(), Loaded: coord.Loaded(), Stages: make([]Stage, 0, len(stages))}
		for _, st := range stages {
			dto.Stages = append(dto.Stages, FromStage(st))
		}
		out = append(out, dto)
	}
	return out
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Detail: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, payload ErrorResponse) {
	s.writeJSON(w, status, payload)
}

// fail maps err onto a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, status, payload)
}
