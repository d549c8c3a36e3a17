package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"dayflow/internal/platform/querier"
	"dayflow/internal/transport/http/api"
)

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInProgress = errors.New("request with this idempotency key is still in progress")
)

type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore reserves a key before the handler runs so a retried
// request replays the first response instead of executing twice.
type IdempotencyStore interface {
	// Reserve returns a stored response when the key already completed,
	// or reserves it and returns nil.
	Reserve(ctx context.Context, userID, endpoint, key, requestHash string) (*StoredResponse, error)
	Complete(ctx context.Context, userID, endpoint, key string, resp StoredResponse) error
	Release(ctx context.Context, userID, endpoint, key string) error
}

func RequestHash(method, path string, payload []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method + " " + path + "\n"))
	sum.Write(payload)
	return hex.EncodeToString(sum.Sum(nil))
}

type PGIdempotencyStore struct {
	DB querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *PGIdempotencyStore {
	return &PGIdempotencyStore{DB: db}
}

func (s *PGIdempotencyStore) Reserve(ctx context.Context, userID, endpoint, key, requestHash string) (*StoredResponse, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, endpoint, key, request_hash)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (user_id, endpoint, key) DO NOTHING
  `, userID, endpoint, key, requestHash)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var storedHash string
	var status *int
	var body []byte
	err = s.DB.QueryRow(ctx, `
    SELECT request_hash, status_code, response_body
    FROM idempotency_keys
    WHERE user_id = $1 AND endpoint = $2 AND key = $3
  `, userID, endpoint, key).Scan(&storedHash, &status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdempotencyInProgress
	}
	if err != nil {
		return nil, err
	}
	if storedHash != requestHash {
		return nil, ErrIdempotencyConflict
	}
	if status == nil {
		return nil, ErrIdempotencyInProgress
	}
	return &StoredResponse{Status: *status, Body: body}, nil
}

func (s *PGIdempotencyStore) Complete(ctx context.Context, userID, endpoint, key string, resp StoredResponse) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE idempotency_keys
    SET status_code = $4, response_body = $5
    WHERE user_id = $1 AND endpoint = $2 AND key = $3
  `, userID, endpoint, key, resp.Status, resp.Body)
	return err
}

func (s *PGIdempotencyStore) Release(ctx context.Context, userID, endpoint, key string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE user_id = $1 AND endpoint = $2 AND key = $3 AND status_code IS NULL
  `, userID, endpoint, key)
	return err
}

type memoryEntry struct {
	hash string
	resp *StoredResponse
}

type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: map[string]*memoryEntry{}}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, userID, endpoint, key, requestHash string) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := userID + "|" + endpoint + "|" + key
	entry, ok := s.entries[id]
	if !ok {
		s.entries[id] = &memoryEntry{hash: requestHash}
		return nil, nil
	}
	if entry.hash != requestHash {
		return nil, ErrIdempotencyConflict
	}
	if entry.resp == nil {
		return nil, ErrIdempotencyInProgress
	}
	return entry.resp, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, userID, endpoint, key string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[userID+"|"+endpoint+"|"+key]; ok {
		entry.resp = &resp
	}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, userID, endpoint, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := userID + "|" + endpoint + "|" + key
	if entry, ok := s.entries[id]; ok && entry.resp == nil {
		delete(s.entries, id)
	}
	return nil
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotent replays the stored response for a repeated Idempotency-Key.
// Requests without the header, or without a principal, pass straight
// through. 5xx responses release the key so the client can retry.
func Idempotent(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			user, ok := GetUser(r.Context())
			if store == nil || key == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > 128 {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key too long", requestID)
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))
			endpoint := r.Method + " " + r.URL.Path

			stored, err := store.Reserve(r.Context(), user.UserID, endpoint, key, RequestHash(r.Method, r.URL.Path, payload))
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
				return
			case errors.Is(err, ErrIdempotencyInProgress):
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", err.Error(), requestID)
				return
			case err != nil:
				slog.Warn("idempotency reserve failed", "err", err)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error, please retry", requestID)
				return
			case stored != nil:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			ctx := context.WithoutCancel(r.Context())
			release := func() {
				if err := store.Release(ctx, user.UserID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "err", err)
				}
			}

			capture := &captureWriter{ResponseWriter: w}
			func() {
				// A panicking handler must not leave the key reserved; the
				// panic still reaches Recoverer.
				defer func() {
					if rec := recover(); rec != nil {
						release()
						panic(rec)
					}
				}()
				next.ServeHTTP(capture, r)
			}()

			if capture.status == 0 || capture.status >= 500 {
				release()
				return
			}
			if err := store.Complete(ctx, user.UserID, endpoint, key, StoredResponse{Status: capture.status, Body: capture.body.Bytes()}); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		})
	}
}
