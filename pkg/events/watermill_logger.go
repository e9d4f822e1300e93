package events

import (
	"ai-ragchat-client/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
)

const logModule = "events"

// watermillLogger routes watermill's internal logging into ILogger.
type watermillLogger struct {
	logger logger.ILogger
	fields watermill.LogFields
}

func NewWatermillLogger(l logger.ILogger) watermill.LoggerAdapter {
	if l == nil {
		return watermill.NopLogger{}
	}
	return &watermillLogger{logger: l, fields: watermill.LogFields{}}
}

func (w *watermillLogger) details(fields watermill.LogFields) map[string]interface{} {
	merged := w.fields.Add(fields)
	details := make(map[string]interface{}, len(merged))
	for k, v := range merged {
		details[k] = v
	}
	return details
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	details := w.details(fields)
	if err != nil {
		details["error"] = err.Error()
	}
	w.logger.Error(logModule, msg, details)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	// GoChannel reports routine traffic at info; keep it out of the file.
	w.logger.Debug(logModule, msg, w.details(fields))
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(logModule, msg, w.details(fields))
}

func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}
