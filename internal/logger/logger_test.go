package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Str("batch", "b1").Msg("import started")

	out := buf.String()
	assert.Contains(t, out, `"batch":"b1"`)
	assert.Contains(t, out, "import started")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)
	got.Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContextFallback(t *testing.T) {
	assert.NotPanics(t, func() {
		log := FromContext(context.Background())
		log.Debug().Msg("fallback logger")
	})
}
