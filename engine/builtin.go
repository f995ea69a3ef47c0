package engine

import (
	"context"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/log"
	"github.com/strandhq/strand/types"
)

// LogBody returns the built-in "log" body: it writes one structured log
// entry per delivered frame and never fails. Useful as an audit tail and
// as the default body for config-declared tasks.
func LogBody(logger *log.Logger) Body {
	return BodyFunc(func(_ context.Context, f *types.Frame, _ *bridge.Handle) error {
		if logger == nil {
			return nil
		}
		logger.Info("frame", map[string]any{
			"id":    f.ID.String(),
			"topic": f.Topic,
			"hash":  f.Hash,
		})
		return nil
	})
}
