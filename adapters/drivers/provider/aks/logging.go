package aks

import (
	"context"
	"time"

	"github.com/yaegashi/botpressops/internal/logging"
)

// withMethodLogger implements the span pattern for AKS driver logging.
// It emits a START log line and returns a context with logger attributes attached,
// plus a cleanup function to emit the END:OK or END:FAILED log line.
//
// Usage:
//
//	ctx, cleanup := d.withMethodLogger(ctx, "ClusterProvision")
//	defer func() { cleanup(err) }()
func (d *driver) withMethodLogger(ctx context.Context, method string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("driver", "AKS."+method, "resourceGroup", d.resourceGroupName)
	ctx = logging.WithLogger(ctx, logger)
	logger.Info(ctx, "AKS:"+method+":START")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "AKS:"+method+":END:OK", "elapsed", elapsed)
			return
		}
		logger.Warn(ctx, "AKS:"+method+":END:FAILED", "err", azureShorterErrorString(err), "elapsed", elapsed)
	}
	return ctx, cleanup
}
