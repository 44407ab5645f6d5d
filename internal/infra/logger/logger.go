package logger

import (
	"context"
	"net/netip"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// TraceIDKey is used to store a trace identifier on the context.
type TraceIDKey struct{}

// New returns the process logger. Production uses JSON output, every other env a colored console.
func New(env string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.InitialFields = map[string]any{"service": "focusmate-auth"}

		lg, err = cfg.Build()
	})

	return lg, err
}

// WithContext returns the process logger annotated with the request and trace ids found on ctx.
func WithContext(ctx context.Context) *zap.Logger {
	base := lg
	if base == nil {
		base = zap.NewNop()
	}
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 2)
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id, ok := ctx.Value(TraceIDKey{}).(string); ok && id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// MaskEmail keeps up to three leading characters of the local part and the domain.
// alice.smith@example.com -> ali***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}

	local := []rune(email[:at])
	if len(local) > 3 {
		local = local[:3]
	}
	return string(local) + "***" + email[at:]
}

// MaskIP hides the host part: the last two IPv4 octets, or everything past the /64 for IPv6.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "***"
	}

	if addr.Is4() || addr.Is4In6() {
		b := addr.Unmap().As4()
		return netip.AddrFrom4([4]byte{b[0], b[1], 0, 0}).String() + "/16"
	}

	prefix, err := addr.Prefix(64)
	if err != nil {
		return "***"
	}
	return prefix.String()
}

// MaskString keeps the first and last two bytes of s.
func MaskString(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}
