package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/mocword/internal/logger"
	"github.com/bastiangx/mocword/internal/utils"
	"github.com/bastiangx/mocword/pkg/config"
	"github.com/bastiangx/mocword/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Completer is what the server needs from the engine.
type Completer interface {
	SuggestMode(ctx context.Context, q suggest.Query, limit int, strict bool) ([]suggest.Suggestion, error)
	Strict() bool
	Stats(ctx context.Context) (map[string]int, error)
}

// Server handles the IPC for completions
type Server struct {
	completer    Completer
	config       *config.Config
	dec          *msgpack.Decoder
	enc          *msgpack.Encoder
	w            *bufio.Writer
	log          *log.Logger
	requestCount int
}

// NewServer creates a new server using stdin/stdout for IPC
func NewServer(completer Completer, cfg *config.Config) *Server {
	return NewServerWithIO(completer, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing responses to w.
func NewServerWithIO(completer Completer, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	return &Server{
		completer: completer,
		config:    cfg,
		dec:       msgpack.NewDecoder(bufio.NewReader(r)),
		enc:       msgpack.NewEncoder(bw),
		w:         bw,
		log:       logger.New("ipc"),
	}
}

// Start serves requests until the input ends or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	if err := s.send(InfoResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw msgpack.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requestCount)
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		s.requestCount++
		if err := s.handleRequest(ctx, raw); err != nil {
			return err
		}
	}
}

// handleRequest decodes and answers one message. Only write failures are
// returned; request failures become error responses.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) error {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Errorf("Decoding request: %v", err)
		return s.sendError("", "invalid request", 400)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	switch req.Action {
	case "", ActionComplete:
		return s.handleComplete(ctx, req)
	case ActionInfo:
		return s.handleInfo(ctx, req)
	case ActionHealth:
		return s.send(InfoResponse{ID: req.ID, Status: "ok"})
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleComplete(ctx context.Context, req Request) error {
	if len(req.Query) > s.config.Server.MaxQueryLen {
		s.log.Debug("Query too long", "id", req.ID, "len", len(req.Query))
		return s.sendError(req.ID, fmt.Sprintf("query exceeds %d bytes", s.config.Server.MaxQueryLen), 400)
	}

	limit := req.Limit
	if limit < 1 {
		limit = s.config.Engine.DefaultLimit
	}
	if limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}
	strict := s.completer.Strict()
	if req.Strict != nil {
		strict = *req.Strict
	}

	start := time.Now()
	results, err := s.completer.SuggestMode(ctx, suggest.ParseQuery(req.Query), limit, strict)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, suggest.ErrEmptyQuery) {
			return s.sendError(req.ID, err.Error(), 400)
		}
		s.log.Error("Request failed", "id", req.ID, "err", err)
		return s.sendError(req.ID, err.Error(), 500)
	}

	ranks := utils.CreateRankList(len(results))
	suggestions := make([]CompletionSuggestion, len(results))
	for i, r := range results {
		suggestions[i] = CompletionSuggestion{Word: r.Word, Rank: ranks[i], Order: r.Order}
	}
	s.log.Debugf("Request %s: %d results in %v", req.ID, len(results), elapsed)

	return s.send(CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleInfo(ctx context.Context, req Request) error {
	counts, err := s.completer.Stats(ctx)
	if err != nil {
		s.log.Error("Stats failed", "err", err)
		return s.sendError(req.ID, err.Error(), 500)
	}
	counts["requests"] = s.requestCount
	return s.send(InfoResponse{ID: req.ID, Status: "ok", Counts: counts})
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(CompletionError{ID: id, Error: message, Code: code})
}

// send encodes one response and flushes it.
func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return s.w.Flush()
}
