package helpers

import (
	"context"

	"github.com/GregMSThompson/bizledger/pkg/logger"
)

// TestCtx returns a context carrying a discard logger.
func TestCtx() context.Context {
	return logger.ToContext(context.Background(), logger.NewTest())
}
