package services_test

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// testLogger discards output unless TEST_LOGS is set.
func testLogger() *slog.Logger {
	if os.Getenv("TEST_LOGS") != "" {
		return slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingIndicator counts the frames a cooking session shows.
type countingIndicator struct {
	mu      sync.Mutex
	empty   int
	cooking []int
	done    int
}

func (c *countingIndicator) ShowEmpty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.empty++
}

func (c *countingIndicator) ShowCooking(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooking = append(c.cooking, remaining)
}

func (c *countingIndicator) ShowDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++
}

func (c *countingIndicator) counts() (empty, done int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.empty, c.done
}
