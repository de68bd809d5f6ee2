package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type memoryProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *memoryProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *memoryProcessor) Shutdown(context.Context) error   { return nil }
func (p *memoryProcessor) ForceFlush(context.Context) error { return nil }

func (p *memoryProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestZapCore_ForwardsAtOrAboveLevel(t *testing.T) {
	proc := &memoryProcessor{}
	lp := newLoggerProviderWith("agrocert-test", proc)
	require.True(t, lp.IsEnabled())

	log := zap.New(lp.ZapCore(zapcore.WarnLevel)).With(zap.String("ficha_id", "f-1"))
	log.Info("dropped")
	log.Warn("surface warning")
	log.Error("approval reverted")

	assert.Equal(t, []string{"surface warning", "approval reverted"}, proc.bodies())

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, otellog.SeverityError, proc.records[1].Severity())
}
