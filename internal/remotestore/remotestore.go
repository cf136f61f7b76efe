// Package remotestore reads and writes the repository-backed record stores
// through the hosted contents API. Every file is replaced whole under an
// optimistic-concurrency revision token; a stale token is retried a bounded
// number of times before surfacing a write conflict.
package remotestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

const writeRetries = 3

var errStaleRevision = errors.New("stale revision token")

// Document is one whole-file read: decoded content plus the revision token
// required for the next write.
type Document struct {
	Content  string
	Revision string
}

type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	owner    string
	branch   string
	filePath string
}

func New(config *boot.Config) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  "https://api.github.com",
		token:    config.Store.Token,
		owner:    config.Store.Owner,
		branch:   config.Store.Branch,
		filePath: config.Store.FilePath,
	}
}

func (c *Client) Read(ctx context.Context, repo string) (*Document, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.baseURL, c.owner, repo, c.filePath, c.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building read request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w: %w", repo, model.ErrorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %s: %w", repo, resp.Status, model.ErrorStoreUnavailable)
	}

	payload := struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", repo, err)
	}

	// The API wraps base64 content across lines.
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding %s content: %w", repo, err)
	}

	return &Document{Content: string(content), Revision: payload.SHA}, nil
}

// Append fetches the current content and writes it back with text added,
// separated from existing content by a newline.
func (c *Client) Append(ctx context.Context, repo, text string) error {
	return c.replace(ctx, repo, "append record", func(content string) string {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + text
	})
}

// RemoveMatching rewrites the file without any record containing substring.
// Records are split on separator; removing an absent record is a no-op.
func (c *Client) RemoveMatching(ctx context.Context, repo, substring, separator string) error {
	message := fmt.Sprintf("remove records matching %q", substring)
	return c.replace(ctx, repo, message, func(content string) string {
		kept := []string{}
		for _, record := range strings.Split(content, separator) {
			if substring != "" && strings.Contains(record, substring) {
				continue
			}
			kept = append(kept, record)
		}
		return strings.Join(kept, separator)
	})
}

// replace runs one read-rewrite-write cycle under the revision token read,
// retrying the whole cycle on a stale token.
func (c *Client) replace(ctx context.Context, repo, message string, rewrite func(string) string) error {
	backoff := retry.WithMaxRetries(writeRetries, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		doc, err := c.Read(ctx, repo)
		if err != nil {
			return err
		}
		if err := c.put(ctx, repo, rewrite(doc.Content), doc.Revision, message); err != nil {
			if errors.Is(err, errStaleRevision) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errStaleRevision) {
		return fmt.Errorf("writing %s: %w", repo, model.ErrorWriteConflict)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", repo, err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, repo, content, revision, message string) error {
	body, err := json.Marshal(map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"sha":     revision,
		"branch":  c.branch,
	})
	if err != nil {
		return fmt.Errorf("encoding write request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, repo, c.filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building write request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("writing %s: %w: %w", repo, model.ErrorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return errStaleRevision
	default:
		return fmt.Errorf("writing %s: status %s: %w", repo, resp.Status, model.ErrorStoreUnavailable)
	}
}
