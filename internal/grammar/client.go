// Package grammar wraps the external grammar/spellcheck service behind a
// small contract the grammar auditor consumes.
package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Issue is one problem the service reported in the submitted text.
type Issue struct {
	Offset       int      `json:"offset"`
	Length       int      `json:"length"`
	Rule         string   `json:"rule"`
	Message      string   `json:"message"`
	Replacements []string `json:"replacements,omitempty"`
}

// Checker is the contract the grammar auditor depends on. Implementations
// must be safe for concurrent use.
type Checker interface {
	Check(ctx context.Context, text, language string) ([]Issue, error)
}

// ServiceError is a non-2xx response from the grammar service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("grammar service returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPChecker talks to a LanguageTool-compatible /v2/check endpoint.
type HTTPChecker struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPChecker builds a checker for the given base URL, e.g.
// "http://localhost:8010". A zero timeout defaults to 15 seconds.
func NewHTTPChecker(baseURL string, timeout time.Duration) *HTTPChecker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPChecker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// languageToolResponse mirrors the subset of the LanguageTool check response
// the auditor needs.
type languageToolResponse struct {
	Matches []struct {
		Message      string `json:"message"`
		Offset       int    `json:"offset"`
		Length       int    `json:"length"`
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
		Rule struct {
			ID string `json:"id"`
		} `json:"rule"`
	} `json:"matches"`
}

// Check submits text to the service and maps every match to an Issue.
func (c *HTTPChecker) Check(ctx context.Context, text, language string) ([]Issue, error) {
	if language == "" {
		language = "en-US"
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build grammar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grammar service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed languageToolResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse grammar response: %w", err)
	}

	issues := make([]Issue, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		issue := Issue{
			Offset:  m.Offset,
			Length:  m.Length,
			Rule:    m.Rule.ID,
			Message: m.Message,
		}
		for _, r := range m.Replacements {
			issue.Replacements = append(issue.Replacements, r.Value)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}
