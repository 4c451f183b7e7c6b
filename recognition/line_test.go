package recognition

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRecognizer_OneLinePerAttempt(t *testing.T) {
	rec := NewLineRecognizer(strings.NewReader("Add Circle\n\n  change color to RED  \n"))
	s, r := newTestSession(rec)

	s.Start(context.Background())
	s.Start(context.Background())
	s.Start(context.Background())
	s.Start(context.Background()) // EOF

	require.Len(t, r.utterances, 2)
	assert.Equal(t, "add circle", r.utterances[0].Text())
	assert.Equal(t, "change color to red", r.utterances[1].Text())
	assert.Equal(t, []Outcome{OutcomeCompleted, OutcomeNoResult, OutcomeCompleted, OutcomeNoResult}, r.outcomes)
	assert.Equal(t, StateIdle, s.State())
}

func TestLineRecognizer_CanceledContext(t *testing.T) {
	rec := NewLineRecognizer(strings.NewReader("add text\n"))
	s, r := newTestSession(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)

	assert.Empty(t, r.utterances)
	assert.Equal(t, []Outcome{OutcomeFailed}, r.outcomes)
	assert.Equal(t, StateIdle, s.State())
}
