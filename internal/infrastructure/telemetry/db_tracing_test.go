package telemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agrocert/backend/internal/infrastructure/config"
)

type tracedProducer struct {
	Code string `gorm:"primaryKey"`
	Name string
}

func newTracedDB(t *testing.T, cfg config.TelemetryConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "trace.db")),
		&gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedProducer{}))
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	recorder := useRecorder(t)
	db := newTracedDB(t, config.TelemetryConfig{})

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedProducer{Code: "PRD-1", Name: "x"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestRegisterDBTracing_HidesParameters(t *testing.T) {
	recorder := useRecorder(t)
	db := newTracedDB(t, config.TelemetryConfig{DBTraceEnabled: true})

	ctx, parent := StartServiceSpan(context.Background(), "ficha", "create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedProducer{Code: "PRD-1", Name: "Juan Mamani"}).Error)
	var got tracedProducer
	require.NoError(t, db.WithContext(ctx).First(&got, "code = ?", "PRD-1").Error)
	parent.End()

	var dbSpans int
	for _, s := range recorder.Ended() {
		if s.Parent().SpanID() != parent.SpanContext().SpanID() {
			continue
		}
		dbSpans++
		for _, kv := range s.Attributes() {
			assert.NotContains(t, kv.Value.Emit(), "Juan Mamani", "attribute %s leaks a parameter", kv.Key)
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
}

func TestRegisterDBTracing_RecordsErrors(t *testing.T) {
	recorder := useRecorder(t)
	db := newTracedDB(t, config.TelemetryConfig{DBTraceEnabled: true})

	ctx, parent := StartServiceSpan(context.Background(), "ficha", "get")
	err := db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error
	parent.End()
	require.Error(t, err)

	var failed bool
	for _, s := range recorder.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() && len(s.Events()) > 0 {
			failed = true
		}
	}
	assert.True(t, failed, "the failing statement span carries an exception event")
}
