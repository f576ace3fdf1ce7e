package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/models"
)

func TestInstrumentedCompleter_Complete(t *testing.T) {
	t.Run("Success - stamps model and duration", func(t *testing.T) {
		next := new(MockCompleter)
		next.On("Name").Return("mock")
		next.On("Complete", mock.Anything, mock.Anything).
			Return(&Completion{Text: "{}", Usage: &models.TokenUsage{InputTokens: 10}}, nil)

		w := Instrument(next, "test-model")
		tick := time.Unix(0, 0)
		w.now = func() time.Time {
			tick = tick.Add(150 * time.Millisecond)
			return tick
		}

		resp, err := w.Complete(context.Background(), CompletionRequest{Prompt: "p"})

		require.NoError(t, err)
		assert.Equal(t, "{}", resp.Text)
		assert.Equal(t, "test-model", resp.Usage.Model)
		assert.Equal(t, int64(150), resp.Usage.DurationMs)
		assert.Equal(t, 10, resp.Usage.InputTokens)
	})

	t.Run("Error - empty text becomes ErrEmptyResponse", func(t *testing.T) {
		next := new(MockCompleter)
		next.On("Name").Return("mock")
		next.On("Complete", mock.Anything, mock.Anything).Return(&Completion{Text: ""}, nil)

		_, err := Instrument(next, "m").Complete(context.Background(), CompletionRequest{})

		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Error - raw failures are classified", func(t *testing.T) {
		next := new(MockCompleter)
		next.On("Name").Return("mock")
		next.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

		_, err := Instrument(next, "m").Complete(context.Background(), CompletionRequest{})

		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

type namedModel struct {
	*MockCompleter
	model string
}

func (n namedModel) GetModelName() string { return n.model }

func TestInstrumentedCompleter_GetModelName(t *testing.T) {
	assert.Equal(t, "configured", Instrument(new(MockCompleter), "configured").GetModelName())
	assert.Equal(t, "gemini-2.5-flash", Instrument(namedModel{new(MockCompleter), "gemini-2.5-flash"}, "").GetModelName())
}
