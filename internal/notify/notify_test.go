package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-alerts/internal/domain"
)

type recordingNotifier struct {
	name string
	err  error
	got  []domain.AlertMessage
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, msg domain.AlertMessage) error {
	r.got = append(r.got, msg)
	return r.err
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func sampleMessage() domain.AlertMessage {
	return domain.AlertMessage{
		Signature: "sig1",
		Lines:     []string{"New transaction: TRANSFER https://solscan.io/tx/sig1", "", "Outgoing: 2.000000 SOL (Solana) ~$300.00"},
	}
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	failure := errors.New("boom")
	a := &recordingNotifier{name: "a", err: failure}
	b := &recordingNotifier{name: "b"}

	err := Multi{a, b}.Notify(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi(nil).Notify(context.Background(), sampleMessage()))
}

func TestNewEnvelope(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	env := NewEnvelope(sampleMessage(), now)

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "alert", decoded["type"])
	assert.Equal(t, float64(1_700_000_000_123), decoded["ts"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "sig1", data["signature"])
	assert.Equal(t, sampleMessage().Text(), data["text"])
	assert.Len(t, data["lines"], 3)
}

func TestNewEnvelope_NilLines(t *testing.T) {
	env := NewEnvelope(domain.AlertMessage{}, time.Now())
	assert.NotNil(t, env.Data.Lines)
	assert.Empty(t, env.Data.Text)
}
