package serve

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/di"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/server"
	"github.com/thomas-vilte/triagemate/internal/services"
	"github.com/urfave/cli/v3"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func runServe(ctx context.Context, t *testing.T, provider ServiceProvider, args ...string) (string, error) {
	t.Helper()
	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	var out bytes.Buffer
	app := &cli.Command{
		Name:     "triagemate",
		Writer:   &out,
		Commands: []*cli.Command{NewServeCommandFactory(provider).CreateCommand(translations, config.DefaultConfig())},
	}
	err = app.Run(ctx, append([]string{"triagemate", "serve"}, args...))
	return out.String(), err
}

func TestServeCommand(t *testing.T) {
	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var got di.TriageOptions
		provider := func(_ context.Context, opts di.TriageOptions) (server.TriageService, error) {
			got = opts
			return new(services.MockTriageService), nil
		}

		out, err := runServe(ctx, t, provider, "--port", "0", "--host", "127.0.0.1", "--rules-only")

		require.NoError(t, err)
		assert.True(t, got.RulesOnly)
		assert.False(t, got.NoCache)
		assert.Contains(t, out, "127.0.0.1:0")
	})

	t.Run("should return provider errors", func(t *testing.T) {
		boom := errors.New("no fetcher")
		provider := func(context.Context, di.TriageOptions) (server.TriageService, error) { return nil, boom }

		_, err := runServe(context.Background(), t, provider, "--port", "0")

		assert.ErrorIs(t, err, boom)
	})

	t.Run("should reject an invalid port", func(t *testing.T) {
		provider := func(context.Context, di.TriageOptions) (server.TriageService, error) {
			t.Fatal("provider must not be called")
			return nil, nil
		}

		_, err := runServe(context.Background(), t, provider, "--port", "70000")

		assert.ErrorIs(t, err, domainErrors.ErrInvalidConfig)
	})
}
