package safe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
)

// Close closes closer and logs any error. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// DrainClose discards what is left of an HTTP body so that the connection can
// be reused, then closes it.
func DrainClose(ctx context.Context, body io.ReadCloser) {
	if body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		logging.From(ctx).Warn("Failed to drain body", slog.Any("error", err))
	}
	Close(ctx, body)
}

// WriteJSON encodes v as the response body with the given status and logs
// any encoding failure, since the header is already committed by then.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("Failed to write JSON response", slog.Any("error", err))
	}
}
