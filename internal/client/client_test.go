package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivethru/internal/api"
	"drivethru/internal/conversation"
	"drivethru/internal/intent"
	"drivethru/internal/lane"
	"drivethru/internal/menu"
	"drivethru/internal/recovery"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := menu.NewEngine(context.Background(), menu.DefaultCatalog(), menu.Options{})
	require.NoError(t, err)
	manager, err := conversation.NewManager(conversation.Options{
		Menu:       engine,
		Classifier: intent.NewRuleClassifier(engine),
		Recovery: recovery.NewHandler(recovery.Options{
			Sleep: func(context.Context, time.Duration) error { return nil },
		}),
	})
	require.NoError(t, err)
	l, err := lane.New(lane.Options{Manager: manager})
	require.NoError(t, err)

	server, err := api.NewServer(api.Options{Lane: l, Menu: engine})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("DRIVETHRU_API_URL", "")
	assert.Equal(t, DefaultBaseURL, New("").BaseURL)

	t.Setenv("DRIVETHRU_API_URL", "http://lane-2:8080")
	assert.Equal(t, "http://lane-2:8080", New("").BaseURL)
	assert.Equal(t, "http://explicit", New("http://explicit").BaseURL)
}

func TestClientConversation(t *testing.T) {
	ctx := context.Background()
	c := New(newTestAPI(t).URL)

	require.NoError(t, c.CheckHealth(ctx))

	_, err := c.SendTurn(ctx, "Hi", 1.0)
	require.NoError(t, err)
	result, err := c.SendTurn(ctx, "a bean burrito and a baja blast", 1.0)
	require.NoError(t, err)
	assert.Len(t, result.Order.Items, 2)

	order, err := c.GetOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Order.Total, order.Total)

	require.NoError(t, c.Reset(ctx))
	order, err = c.GetOrder(ctx)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
}

func TestClientMenu(t *testing.T) {
	ctx := context.Background()
	c := New(newTestAPI(t).URL)

	sections, err := c.GetMenu(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sections)

	results, err := c.Search(ctx, "bean burrito", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Bean Burrito", results[0].Item.Name)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	ctx := context.Background()
	c := New(newTestAPI(t).URL)

	_, err := c.SendTurn(ctx, "hi", 2.0)
	assert.ErrorContains(t, err, "confidence must be between 0 and 1")

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	assert.Error(t, New(down.URL).CheckHealth(ctx))
}
