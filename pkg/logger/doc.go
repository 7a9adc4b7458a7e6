// Package logger builds the structured loggers used across the library client.
//
// It is a thin layer over log/slog: New assembles a *slog.Logger from functional
// options, picks a text or JSON handler and wraps it with a decorator that pulls
// request-scoped values (such as the outbound request id) from context.Context on
// every record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "library-cli"),
//	    logger.WithContextExtractors(apiclient.RequestIDExtractor()),
//	)
//
//	log.InfoContext(ctx, "signed in",
//	    logger.UserID(user.ID),
//	    logger.Role(user.Role),
//	)
//
// Components that accept an optional logger default to Discard so that a library
// consumer who never configures logging sees no output.
//
// # Attributes
//
// Helpers in attr.go (Error, UserID, Phase, Status, ...) keep attribute keys
// consistent. Helpers that take an error or an optional value return an empty
// slog.Attr when there is nothing to record, so callers do not need nil checks:
//
//	log.Debug("profile resolved", logger.Error(err))
package logger
