// Package logger creates configured slog.Logger instances and provides
// attribute helpers for consistent structured logging keys across the module.
//
//	log := logger.New(logger.WithFormat(logger.FormatText), logger.WithLevel(slog.LevelDebug))
//	log.Info("notification dispatched", logger.NotificationID(id), logger.Channel("email"))
package logger
