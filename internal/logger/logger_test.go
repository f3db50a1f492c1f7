package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("request_id", "req-1").Logger()

	ctx := NewContext(context.Background(), l)
	WithContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)

	assert.NotNil(t, WithContext(context.Background()))
}

func TestOpenOutput(t *testing.T) {
	w, err := openOutput("")
	assert.NoError(t, err)
	assert.NotNil(t, w)

	_, err = openOutput(t.TempDir() + "/logs/app.log")
	assert.NoError(t, err)
}
