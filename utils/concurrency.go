package utils

import (
	"sort"
	"sync"
	"time"
)

// WorkerPool runs jobs on a fixed set of long-lived workers. Each worker has a
// stable id in [0, Size()) which jobs use to pick resources the worker owns
// exclusively. A pool is single-use: Wait closes the queue.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	jobs        chan func(workerID int)
	wg          sync.WaitGroup
	once        sync.Once
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool starts maxWorkers workers. rateLimitMs, when positive, is the
// minimum interval between the start of any two jobs.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	wp := &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		jobs:        make(chan func(int)),
		lastRequest: time.Now().Add(-time.Duration(rateLimitMs) * time.Millisecond),
	}

	wp.wg.Add(maxWorkers)
	for id := 0; id < maxWorkers; id++ {
		go wp.run(id)
	}
	return wp
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		wp.enforceRateLimit()
		job(id)
	}
}

// Submit enqueues a job. It blocks until a worker accepts it.
func (wp *WorkerPool) Submit(job func(workerID int)) {
	wp.jobs <- job
}

// Wait closes the queue and blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.once.Do(func() { close(wp.jobs) })
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimitMs <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}

// URLSet is a thread-safe set of normalized URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Merge adds every URL and returns how many were new.
func (s *URLSet) Merge(urls []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, u := range urls {
		if _, exists := s.seen[u]; exists {
			continue
		}
		s.seen[u] = struct{}{}
		added++
	}
	return added
}

// Contains returns true if the URL is in the set.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Sorted returns the members in lexical order.
func (s *URLSet) Sorted() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.seen))
	for u := range s.seen {
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}
