package handlers

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// RequestLogger logs every request once it has been handled.
func RequestLogger() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		start := time.Now()
		err := e.Next()

		fields := []zap.Field{
			zap.String("method", e.Request.Method),
			zap.String("path", e.Request.URL.Path),
			zap.Int("status", e.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			zap.L().Warn("request failed", append(fields, zap.Error(err))...)
			return err
		}
		zap.L().Info("request", fields...)
		return nil
	}
}
