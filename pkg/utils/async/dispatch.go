package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/utils/errutil"
	"github.com/mentis-app/mentis/pkg/utils/logging"
)

var inflight sync.WaitGroup

// Dispatch runs handler on a detached goroutine. The context passed to
// handler is not cancelled with ctx but keeps its logger. Errors and panics
// are reported through errutil.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx).With("task", name))

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async task", goerr.V("task", name), goerr.V("panic", r)), "async task panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Handle(bgCtx, err, "async task failed")
		}
	}()
}

// Wait blocks until every dispatched task has returned
func Wait() {
	inflight.Wait()
}
