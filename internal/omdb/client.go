// Package omdb looks up canonical movie metadata from the OMDb title endpoint.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

// notAvailable is OMDb's placeholder for missing fields.
const notAvailable = "N/A"

// Client defines the contract for querying the upstream movie API.
type Client interface {
	Lookup(ctx context.Context, title string) (domain.Movie, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed OMDb client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("omdb api key is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse omdb url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Lookup retrieves canonical metadata for the given title. A miss reported by
// the API yields ENOTFOUND; network failures, non-200 statuses and malformed
// payloads yield ETRANSPORT.
func (c *HTTPClient) Lookup(ctx context.Context, title string) (domain.Movie, error) {
	endpoint := *c.baseURL
	q := endpoint.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.Movie{}, errs.Wrap(errs.ETRANSPORT, err, "OMDb request could not be built")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("omdb: request for %q failed: %v", title, err)
		return domain.Movie{}, errs.Wrap(errs.ETRANSPORT, err, "OMDb request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("omdb: unexpected status %d for title %q", resp.StatusCode, title)
		return domain.Movie{}, errs.Errorf(errs.ETRANSPORT, "OMDb request failed: %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Movie{}, errs.Wrap(errs.ETRANSPORT, err, "OMDb returned a malformed response")
	}
	if strings.EqualFold(payload.Response, "false") {
		if reason := strings.TrimSpace(payload.Error); reason != "" {
			return domain.Movie{}, errs.Errorf(errs.ENOTFOUND, "Movie %q not found in OMDb API (%s).", title, reason)
		}
		return domain.Movie{}, errs.Errorf(errs.ENOTFOUND, "Movie %q not found in OMDb API.", title)
	}
	return convertToMovie(payload)
}

type apiResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDbRating string `json:"imdbRating"`
	Poster     string `json:"Poster"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func convertToMovie(payload apiResponse) (domain.Movie, error) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return domain.Movie{}, errs.Errorf(errs.ETRANSPORT, "OMDb response has no title")
	}

	year, err := parseYear(payload.Year)
	if err != nil {
		return domain.Movie{}, errs.Wrap(errs.ETRANSPORT, err, "OMDb response for %q has an invalid year %q", title, payload.Year)
	}

	rating, err := parseRating(payload.IMDbRating)
	if err != nil {
		return domain.Movie{}, errs.Wrap(errs.ETRANSPORT, err, "OMDb response for %q has an invalid rating %q", title, payload.IMDbRating)
	}

	poster := strings.TrimSpace(payload.Poster)
	if poster == notAvailable {
		poster = ""
	}

	return domain.Movie{
		Title:  title,
		Year:   year,
		Rating: rating,
		Poster: poster,
	}, nil
}

// parseYear takes the leading digits, so ranges such as "2005–2007" map to
// their first year.
func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("no leading digits")
	}
	year, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0, err
	}
	if year <= 0 {
		return 0, fmt.Errorf("year must be positive")
	}
	return year, nil
}

func parseRating(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == notAvailable {
		return 0, nil
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return 0, err
	}
	return rating, nil
}
