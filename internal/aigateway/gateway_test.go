package aigateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	type offer struct {
		Name     string `json:"name"`
		Discount string `json:"discount"`
	}

	tests := []struct {
		name    string
		input   string
		want    offer
		wantErr error
	}{
		{
			name:  "bare object",
			input: `{"name":"SAVE","discount":"10%"}`,
			want:  offer{Name: "SAVE", Discount: "10%"},
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"name\":\"SAVE\",\"discount\":\"10%\"}\n```",
			want:  offer{Name: "SAVE", Discount: "10%"},
		},
		{
			name:  "surrounded by prose",
			input: "Here you go: {\"name\":\"X1\"} hope it helps",
			want:  offer{Name: "X1"},
		},
		{
			name:    "no object",
			input:   "I cannot help with that",
			wantErr: ErrNoJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got offer
			err := ExtractJSON(tt.input, &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	var v map[string]any
	err := ExtractJSON(`{"name": }`, &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoJSON)
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := NewFailing(errors.New("boom"))
	second := NewStatic("second answer")
	third := NewStatic("third answer")

	c := NewChain(
		Provider{Name: "a", Generator: first},
		Provider{Name: "b", Generator: second},
		Provider{Name: "c", Generator: third},
	)

	text, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "second answer", text)
	assert.Equal(t, "hello", first.LastPrompt())
	assert.Equal(t, "", third.LastPrompt())
}

func TestChain_EmptyResponseFallsThrough(t *testing.T) {
	c := NewChain(
		Provider{Name: "empty", Generator: NewStatic("")},
		Provider{Name: "ok", Generator: NewStatic("ok")},
	)
	text, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestChain_RateLimitClassification(t *testing.T) {
	limited := fmt.Errorf("%w: quota", ErrRateLimited)

	t.Run("all limited", func(t *testing.T) {
		c := NewChain(
			Provider{Name: "a", Generator: NewFailing(limited)},
			Provider{Name: "b", Generator: NewFailing(limited)},
		)
		_, err := c.Generate(context.Background(), "p")
		assert.True(t, IsRateLimited(err))
	})

	t.Run("mixed", func(t *testing.T) {
		c := NewChain(
			Provider{Name: "a", Generator: NewFailing(limited)},
			Provider{Name: "b", Generator: NewFailing(errors.New("bad gateway"))},
		)
		_, err := c.Generate(context.Background(), "p")
		require.Error(t, err)
		assert.False(t, IsRateLimited(err))
		assert.Contains(t, err.Error(), "bad gateway")
	})
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain().Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestChain_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewChain(Provider{Name: "a", Generator: NewStatic("never")})
	_, err := c.Generate(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestFunc(t *testing.T) {
	g := Func(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	text, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", text)
}

func TestRateLimitedText(t *testing.T) {
	assert.True(t, rateLimitedText(errors.New("Error 429: too many requests")))
	assert.True(t, rateLimitedText(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, rateLimitedText(errors.New("quota exceeded for project")))
	assert.False(t, rateLimitedText(errors.New("connection refused")))
}
