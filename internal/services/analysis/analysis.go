// Package analysis отправляет текст налоговых документов и договоров
// во внешнюю языковую модель и возвращает ее ответ в виде JSON-объекта.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Kind тип анализа.
type Kind string

// Поддерживаемые типы анализа.
const (
	KindTax      Kind = "tax"
	KindContract Kind = "contract"
)

var (
	// ErrUnknownKind тип анализа не поддерживается.
	ErrUnknownKind = errors.New("unknown analysis kind")
	// ErrNotConfigured ключ API модели не задан.
	ErrNotConfigured = errors.New("ai analysis is not configured")
	// ErrUpstream модель ответила ошибкой или не JSON-объектом.
	ErrUpstream = errors.New("ai upstream failed")
)

var instructions = map[Kind]string{
	KindTax: "You assist small businesses in Kazakhstan with taxes. " +
		"Read the document and answer with a JSON object with keys " +
		`"summary", "obligations", "deadlines", "risks".`,
	KindContract: "You review commercial contracts for a small business. " +
		"Read the contract and answer with a JSON object with keys " +
		`"summary", "parties", "payment_terms", "risks", "recommendations".`,
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []message `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Client клиент chat completions API.
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

// New создает клиента. url указывает на эндпоинт chat/completions.
func New(log *slog.Logger, url, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		apiKey:     apiKey,
		model:      model,
	}
}

// Analyze отправляет текст модели и возвращает разобранный JSON-объект ответа.
func (c *Client) Analyze(ctx context.Context, kind Kind, text string) (map[string]any, error) {
	const op = "services.analysis.Analyze"

	instruction, ok := instructions[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownKind, kind)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Error("ai upstream error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("%s: %w: status %d", op, ErrUpstream, resp.StatusCode)
	}

	var chat chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w: empty choices", op, ErrUpstream)
	}

	var result map[string]any
	content := extractJSON(chat.Choices[0].Message.Content)
	if err = json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}

	c.log.Info("ai analysis completed",
		slog.String("kind", string(kind)),
		slog.Duration("took", time.Since(started)),
	)
	return result, nil
}

// extractJSON вырезает первый JSON-объект: модели иногда оборачивают ответ
// в markdown или поясняющий текст.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}
