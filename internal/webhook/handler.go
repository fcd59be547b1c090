package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/pipeline"
)

// DefaultMaxBodyBytes caps the accepted payload size.
const DefaultMaxBodyBytes = 10 << 20

// BatchProcessor handles a parsed batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, txs []domain.RawTransaction) pipeline.BatchResult
}

// Options configures a Handler.
type Options struct {
	// Secret is the shared bearer token. Every request is rejected when empty.
	Secret       string
	Processor    BatchProcessor
	MaxBodyBytes int64
	Logger       *log.Logger
}

// Handler authenticates, parses and processes webhook batches.
type Handler struct {
	expected     []byte
	processor    BatchProcessor
	maxBodyBytes int64
	logger       *log.Logger
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		processor:    opts.Processor,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
	if opts.Secret != "" {
		h.expected = []byte("Bearer " + opts.Secret)
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reply(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.authorized(r.Header.Get("Authorization")) {
		h.logger.Printf("rejected request from %s: bad authorization", r.RemoteAddr)
		h.reply(w, http.StatusForbidden, "forbidden")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.Printf("read body: %v", err)
		h.reply(w, http.StatusBadRequest, "bad request")
		return
	}

	txs, err := ParsePayload(body)
	if err != nil {
		if !errors.Is(err, ErrEmptyBody) {
			h.logger.Printf("parse payload (%d bytes): %v", len(body), err)
		}
		h.reply(w, http.StatusBadRequest, "bad request")
		return
	}

	batchID := uuid.NewString()
	start := time.Now()
	h.logger.Printf("batch %s: %d transactions", batchID, len(txs))

	// A client disconnect must not abort lookups or deliveries mid-batch.
	res := h.processor.ProcessBatch(context.WithoutCancel(r.Context()), txs)
	h.logger.Printf("batch %s: processed %d, failed %d in %v",
		batchID, res.Processed, res.Failed, time.Since(start))

	h.reply(w, http.StatusOK, "ok")
}

func (h *Handler) authorized(header string) bool {
	if len(h.expected) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), h.expected) == 1
}

func (h *Handler) reply(w http.ResponseWriter, status int, body string) {
	observability.RecordWebhookRequest(strconv.Itoa(status))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
