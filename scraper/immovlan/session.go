package immovlan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/time/rate"

	"immo-harvester/models"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Fetcher retrieves one page. Transport failures (timeouts, refused
// connections) are returned as errors; every HTTP status, including 429 and
// 5xx, is returned as a RawPage.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.RawPage, error)
}

// Session is one reusable HTTP session: its own cookie jar, its own
// connection pool and a fixed header set. A Session is owned by one worker.
type Session struct {
	id      int
	client  *http.Client
	headers map[string]string
	limiter *rate.Limiter
}

// NewSession builds a session. limiter may be nil; when set it is typically
// shared by every session of a run to cap the overall request rate.
func NewSession(id int, timeout time.Duration, headers map[string]string, limiter *rate.Limiter) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("session: create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}

	return &Session{
		id: id,
		client: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: transport,
		},
		headers: h,
		limiter: limiter,
	}, nil
}

// ID returns the session's index in its pool.
func (s *Session) ID() int { return s.id }

// Fetch issues one GET with the session's headers and cookies.
func (s *Session) Fetch(ctx context.Context, url string) (*models.RawPage, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("session %d: rate limiter: %w", s.id, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("session %d: build request: %w", s.id, err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session %d: get %s: %w", s.id, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("session %d: read body of %s: %w", s.id, url, err)
	}

	return &models.RawPage{URL: url, StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// Close releases idle connections.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// SessionPool is a fixed set of fetchers assigned to workers round-robin by
// worker id. With as many sessions as workers, each session is used by
// exactly one worker for the pool's lifetime.
type SessionPool struct {
	sessions []Fetcher
	release  func()
}

// NewSessionPool wraps an existing set of fetchers.
func NewSessionPool(fetchers ...Fetcher) *SessionPool {
	return &SessionPool{sessions: fetchers}
}

// NewHTTPSessionPool creates size HTTP sessions. maxRPS > 0 installs one
// limiter shared by all of them.
func NewHTTPSessionPool(size int, timeout time.Duration, headers map[string]string, maxRPS float64) (*SessionPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("session pool: size must be positive, got %d", size)
	}

	var limiter *rate.Limiter
	if maxRPS > 0 {
		burst := int(maxRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(maxRPS), burst)
	}

	fetchers := make([]Fetcher, 0, size)
	for i := 0; i < size; i++ {
		s, err := NewSession(i, timeout, headers, limiter)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, s)
	}
	return NewSessionPool(fetchers...), nil
}

// Size returns the number of sessions.
func (p *SessionPool) Size() int {
	return len(p.sessions)
}

// For returns the session owned by workerID.
func (p *SessionPool) For(workerID int) Fetcher {
	if workerID < 0 {
		workerID = -workerID
	}
	return p.sessions[workerID%len(p.sessions)]
}

// Close closes every session that supports it.
func (p *SessionPool) Close() {
	for _, s := range p.sessions {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
	}
	if p.release != nil {
		p.release()
	}
}
