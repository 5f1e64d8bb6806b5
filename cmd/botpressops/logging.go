package main

import (
	"context"
	"time"

	"github.com/yaegashi/botpressops/internal/logging"
)

// withCmdRunLogger implements the Span pattern for CLI command logging.
//
//	ctx, cleanup := withCmdRunLogger(ctx, "up", stackName)
//	defer func() { cleanup(err) }()
//
// Messages are CMD:<operation>/S, CMD:<operation>/EOK and CMD:<operation>/EFAIL,
// all at INFO level. The runId comes from the context logger.
func withCmdRunLogger(ctx context.Context, operation, stack string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("stack", stack)
	ctx = logging.WithLogger(ctx, logger)
	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "CMD:"+operation+"/EOK", "err", "", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 32 {
			errStr = errStr[:32] + "..."
		}
		logger.Info(ctx, "CMD:"+operation+"/EFAIL", "err", errStr, "elapsed", elapsed)
	}
	return ctx, cleanup
}
