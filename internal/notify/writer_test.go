package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Notify(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Notify(context.Background(), sampleMessage()))
	require.NoError(t, w.Notify(context.Background(), sampleMessage()))

	one := sampleMessage().Text() + "\n\n"
	assert.Equal(t, one+one, buf.String())
}
