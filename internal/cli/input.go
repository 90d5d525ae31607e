// Package cli runs the line-oriented front end: one request per input line,
// one response line per request.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/mocword/internal/logger"
	"github.com/bastiangx/mocword/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler reads lines and writes the ranked words for each of them.
type InputHandler struct {
	completer    suggest.ICompleter
	suggestLimit int
	stopOnError  bool
	requestCount int
	failed       int
	log          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(completer suggest.ICompleter, limit int, stopOnError bool) *InputHandler {
	return &InputHandler{
		completer:    completer,
		suggestLimit: limit,
		stopOnError:  stopOnError,
		log:          logger.Default("cli"),
	}
}

// Start runs the loop over stdin and stdout.
func (h *InputHandler) Start(ctx context.Context) error {
	return h.Run(ctx, os.Stdin, os.Stdout)
}

// Run answers every line of r on w, words separated by a single space.
// A failed request is logged and answered with an empty line; with
// stopOnError set it ends the loop instead. Run returns nil at end of input.
func (h *InputHandler) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		if len(line) > 0 {
			words, err := h.handleInput(ctx, trimNewline(line))
			if err != nil && h.stopOnError {
				return err
			}
			if _, err := fmt.Fprintln(bw, strings.Join(words, " ")); err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return err
			}
		}
		if readErr != nil {
			h.log.Debugf("Input closed after %d requests (%d failed)", h.requestCount, h.failed)
			return nil
		}
	}
}

// RunOnce answers a single query on w, one word per line.
func (h *InputHandler) RunOnce(ctx context.Context, query string, w io.Writer) error {
	words, err := h.handleInput(ctx, query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.Join(words, "\n"))
	return err
}

// handleInput runs one request. Errors are logged here.
func (h *InputHandler) handleInput(ctx context.Context, line string) ([]string, error) {
	h.requestCount++
	start := time.Now()

	words, err := h.completer.Complete(ctx, line, h.suggestLimit)
	if err != nil {
		h.failed++
		h.log.Errorf("Request %d (%q): %v", h.requestCount, line, err)
		return nil, err
	}
	h.log.Debugf("Took [ %v ] for %q: %d words", time.Since(start), line, len(words))
	return words, nil
}

// trimNewline strips the line terminator but keeps other trailing
// whitespace, which marks a predict request.
func trimNewline(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
