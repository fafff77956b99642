package hooks

import "go.uber.org/zap"

// ZapHooks routes telemetry through a structured zap.Logger instead of the
// standard library logger LogHooks uses.
type ZapHooks struct {
	Logger *zap.Logger
}

// NewZapHooks wraps logger, or builds a production logger if logger is nil.
func NewZapHooks(logger *zap.Logger) (*ZapHooks, error) {
	if logger != nil {
		return &ZapHooks{Logger: logger}, nil
	}
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapHooks{Logger: l}, nil
}

func (h *ZapHooks) Redirected(requestID, kind string, slot uint16, addr string) {
	h.Logger.Info("cluster redirect",
		zap.String("request_id", requestID),
		zap.String("kind", kind),
		zap.Uint16("slot", slot),
		zap.String("addr", addr))
}

func (h *ZapHooks) BatchFlushed(requestID, node string, size int) {
	h.Logger.Debug("cluster batch flushed",
		zap.String("request_id", requestID),
		zap.String("node", node),
		zap.Int("size", size))
}

func (h *ZapHooks) ShardMapRefreshed(requestID string) {
	h.Logger.Info("cluster shard map refreshed", zap.String("request_id", requestID))
}
