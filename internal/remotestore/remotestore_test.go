package remotestore

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

// fakeContents emulates the hosted contents API for one file: GET returns
// base64 content plus the current revision, PUT replaces the file when the
// submitted revision matches.
type fakeContents struct {
	mu        sync.Mutex
	content   string
	sha       string
	conflicts int
	puts      int
}

func newFakeAPI(t *testing.T, contents *fakeContents) *httptest.Server {
	e := echo.New()

	e.GET("/repos/:owner/:repo/contents/:path", func(c echo.Context) error {
		contents.mu.Lock()
		defer contents.mu.Unlock()
		return c.JSON(http.StatusOK, map[string]string{
			"content": base64.StdEncoding.EncodeToString([]byte(contents.content)),
			"sha":     contents.sha,
		})
	})

	e.PUT("/repos/:owner/:repo/contents/:path", func(c echo.Context) error {
		contents.mu.Lock()
		defer contents.mu.Unlock()
		contents.puts++

		body := struct {
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}{}
		if err := c.Bind(&body); err != nil {
			return err
		}

		if contents.conflicts > 0 || body.SHA != contents.sha {
			contents.conflicts--
			return c.JSON(http.StatusConflict, map[string]string{"message": "sha mismatch"})
		}

		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "bad content"})
		}
		contents.content = string(decoded)
		contents.sha = model.CreateID()
		return c.JSON(http.StatusOK, map[string]string{"sha": contents.sha})
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		http:     &http.Client{Timeout: 5 * time.Second},
		baseURL:  server.URL,
		token:    "test-token",
		owner:    "AlgoRL",
		branch:   "main",
		filePath: "index.html",
	}
}

func TestReadAppendRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	contents := &fakeContents{content: "76561198000000001|hitbox,", sha: model.CreateID()}
	client := newTestClient(newFakeAPI(t, contents))

	err := client.Append(ctx, "IDS", "76561198000000002|boost,")
	assert.Nil(err)

	doc, err := client.Read(ctx, "IDS")
	assert.Nil(err)
	assert.True(strings.HasSuffix(doc.Content, "76561198000000002|boost,"))
	assert.Contains(doc.Content, "76561198000000001|hitbox,")
	assert.Equal(contents.sha, doc.Revision)
}

func TestAppendToEmptyFile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	contents := &fakeContents{sha: model.CreateID()}
	client := newTestClient(newFakeAPI(t, contents))

	err := client.Append(ctx, "IDS", "76561198000000001|hitbox,")
	assert.Nil(err)
	assert.Equal("76561198000000001|hitbox,", contents.content)
}

func TestRemoveMatching(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	contents := &fakeContents{
		content: "id123|m1,\nid456|m2,\n",
		sha:     model.CreateID(),
	}
	client := newTestClient(newFakeAPI(t, contents))

	t.Run("removes the matching record", func(t *testing.T) {
		err := client.RemoveMatching(ctx, "IDS", "id123", model.SeparatorLine)
		assert.Nil(err)
		assert.NotContains(contents.content, "id123")
		assert.Contains(contents.content, "id456|m2,")
	})

	t.Run("second removal is a no-op", func(t *testing.T) {
		before := contents.content
		err := client.RemoveMatching(ctx, "IDS", "id123", model.SeparatorLine)
		assert.Nil(err)
		assert.Equal(before, contents.content)
	})
}

func TestStaleRevisionRetried(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	contents := &fakeContents{content: "a|1,", sha: model.CreateID(), conflicts: 1}
	client := newTestClient(newFakeAPI(t, contents))

	err := client.Append(ctx, "IDS", "b|2,")
	assert.Nil(err)
	assert.Equal(2, contents.puts)
	assert.Contains(contents.content, "b|2,")
}

func TestWriteConflictAfterExhaustion(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	contents := &fakeContents{content: "a|1,", sha: model.CreateID(), conflicts: 100}
	client := newTestClient(newFakeAPI(t, contents))

	err := client.Append(ctx, "IDS", "b|2,")
	assert.ErrorIs(err, model.ErrorWriteConflict)
	assert.Equal(1+writeRetries, contents.puts)
}

func TestReadUnavailable(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	server := newFakeAPI(t, &fakeContents{sha: model.CreateID()})
	client := newTestClient(server)
	server.Close()

	_, err := client.Read(ctx, "IDS")
	assert.ErrorIs(err, model.ErrorStoreUnavailable)
}
