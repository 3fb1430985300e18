package chat

import "context"

const (
	ChannelTelegram = "telegram"
	ChannelHTTP     = "http"
)

type channelKey struct{}

// WithChannel tags ctx with the transport a turn arrived on.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

func ChannelFromContext(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey{}).(string); ok {
		return ch
	}
	return "unknown"
}
