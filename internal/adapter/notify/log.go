package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to the service log. Used when no broker is set.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, event OrderPlaced) error {
	n.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", event.OrderID.String()),
		slog.String("user_id", event.UserID.String()),
		slog.String("price", event.Price.StringFixed(2)),
		slog.Int("attachments", event.Attachments),
	)
	return nil
}

func (n *LogNotifier) PasswordResetRequested(ctx context.Context, event PasswordResetRequested) error {
	n.logger.InfoContext(ctx, "password reset requested", slog.String("profile_id", event.ProfileID.String()))
	n.logger.DebugContext(ctx, "password reset link", slog.String("email", event.Email), slog.String("link", event.Link))
	return nil
}
