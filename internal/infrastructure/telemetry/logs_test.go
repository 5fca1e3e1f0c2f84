package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{ServiceName: "kouden-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Equal(t, "kouden-test", lp.GetConfig().ServiceName)
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "kouden-test"})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	core = NewZapOTELCore(ZapBridgeConfig{ServiceName: "kouden-test", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_LevelFilter(t *testing.T) {
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(),
		logger:   zap.NewNop(),
		config:   LogsConfig{Enabled: true},
	}
	defer func() { _ = lp.provider.Shutdown(context.Background()) }()

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "kouden-test",
		LoggerProvider: lp,
		Level:          zapcore.WarnLevel,
	})

	filtered, ok := core.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	with := core.With([]zapcore.Field{zap.String("kouden_id", "k1")})
	assert.IsType(t, &levelFilterCore{}, with)

	ce := core.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil)
	assert.Nil(t, ce)
}

func TestNewZapOTELCore_DebugLevelUnwrapped(t *testing.T) {
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(),
		logger:   zap.NewNop(),
		config:   LogsConfig{Enabled: true},
	}
	defer func() { _ = lp.provider.Shutdown(context.Background()) }()

	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "kouden-test", LoggerProvider: lp, Level: zapcore.DebugLevel})
	_, wrapped := core.(*levelFilterCore)
	assert.False(t, wrapped)
}
