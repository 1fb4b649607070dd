package ops

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jdelaire/autoreply/core/replies"
)

var startTime = time.Now()

// StatusOp reports uptime and how many keywords are loaded.
type StatusOp struct {
	Router *replies.Router
}

func (s *StatusOp) Name() string        { return "status" }
func (s *StatusOp) Description() string { return "Show bot status" }

func (s *StatusOp) Execute(_ context.Context, _ Request) (Response, error) {
	uptime := time.Since(startTime).Truncate(time.Second)
	return Text(fmt.Sprintf("Status: OK\nUptime: %s\nKeywords: %d\nGo: %s",
		uptime, s.Router.Current().Len(), runtime.Version())), nil
}
