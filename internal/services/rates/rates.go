// Package rates получает курсы валют у внешнего API и отдает их через кеш.
//
// Внешний API вызывается не чаще одного раза за TTL на процесс, а при наличии
// Redis не чаще одного раза за TTL на все инстансы.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/bizfinance/internal/metrics"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/ratecache"
)

const cacheKey = "rates:latest"

// ErrUpstream внешний API курсов ответил ошибкой.
var ErrUpstream = errors.New("rates upstream failed")

type upstreamResponse struct {
	Result             string             `json:"result"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	Rates              map[string]float64 `json:"rates"`
	ErrorType          string             `json:"error-type"`
}

// Service отдает курсы валют.
type Service struct {
	log        *slog.Logger
	cache      *ratecache.Cache
	httpClient *http.Client
	url        string
	ttl        time.Duration
	now        func() time.Time
}

// New создает сервис курсов. url отвечает в формате open.er-api.com.
func New(log *slog.Logger, cache *ratecache.Cache, url string, ttl, timeout time.Duration) *Service {
	return &Service{
		log:        log,
		cache:      cache,
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Latest возвращает курсы. Если symbols не пуст, в ответе только эти валюты.
func (s *Service) Latest(ctx context.Context, symbols []string) (*models.Rates, error) {
	const op = "services.rates.Latest"

	all, err := ratecache.GetOrRefresh(ctx, s.cache, cacheKey, s.ttl, s.fetch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(symbols) == 0 {
		return &all, nil
	}

	filtered := models.Rates{
		Base:      all.Base,
		Rates:     make(map[string]float64, len(symbols)),
		UpdatedAt: all.UpdatedAt,
		FetchedAt: all.FetchedAt,
	}
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if v, ok := all.Rates[sym]; ok {
			filtered.Rates[sym] = v
		}
	}
	return &filtered, nil
}

func (s *Service) fetch(ctx context.Context) (_ models.Rates, err error) {
	const op = "services.rates.fetch"
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RatesUpstreamCalls.WithLabelValues(result).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return models.Rates{}, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.Rates{}, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Rates{}, fmt.Errorf("%s: %w: unexpected status %s", op, ErrUpstream, resp.Status)
	}

	var body upstreamResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Rates{}, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	if body.Result != "success" || len(body.Rates) == 0 {
		return models.Rates{}, fmt.Errorf("%s: %w: result=%q error=%q", op, ErrUpstream, body.Result, body.ErrorType)
	}

	s.log.Info("exchange rates refreshed", slog.String("base", body.BaseCode), slog.Int("count", len(body.Rates)))
	return models.Rates{
		Base:      body.BaseCode,
		Rates:     body.Rates,
		UpdatedAt: time.Unix(body.TimeLastUpdateUnix, 0).UTC(),
		FetchedAt: s.now().UTC(),
	}, nil
}
