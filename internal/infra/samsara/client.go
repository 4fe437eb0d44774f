package samsara

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/domain/hos"
)

const defaultBaseURL = "https://api.samsara.com"

// Client is a thin fetch wrapper over the fleet API. It transparently follows
// the endCursor/hasNextPage pagination convention and surfaces any non-2xx
// response or transport fault as an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a client against the given base URL. An empty baseURL
// targets the production API.
func NewClient(baseURL string, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

type pagination struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

type clocksResponse struct {
	Data       []hos.Clock `json:"data"`
	Pagination pagination  `json:"pagination"`
}

type driversResponse struct {
	Data       []hos.Driver `json:"data"`
	Pagination pagination   `json:"pagination"`
}

// FetchClocks returns the current duty-status clocks for all drivers matching
// the filters, following pagination until exhausted.
func (c *Client) FetchClocks(ctx context.Context, token string, filters hos.Filters) ([]hos.Clock, error) {
	params := filterParams(filters)

	var clocks []hos.Clock
	cursor := ""
	for {
		var page clocksResponse
		if err := c.getPage(ctx, token, "/fleet/hos/clocks", params, cursor, &page); err != nil {
			return nil, err
		}
		clocks = append(clocks, page.Data...)
		if !page.Pagination.HasNextPage {
			break
		}
		cursor = page.Pagination.EndCursor
	}
	c.log.Debugf("fetched %d HOS clocks", len(clocks))
	return clocks, nil
}

// ListDrivers returns the drivers matching the filters. Same pagination
// protocol as FetchClocks.
func (c *Client) ListDrivers(ctx context.Context, token string, filters hos.Filters) ([]hos.Driver, error) {
	params := filterParams(filters)

	var drivers []hos.Driver
	cursor := ""
	for {
		var page driversResponse
		if err := c.getPage(ctx, token, "/fleet/drivers", params, cursor, &page); err != nil {
			return nil, err
		}
		drivers = append(drivers, page.Data...)
		if !page.Pagination.HasNextPage {
			break
		}
		cursor = page.Pagination.EndCursor
	}
	return drivers, nil
}

// getPage performs one GET against path and decodes the response into dst.
func (c *Client) getPage(ctx context.Context, token, path string, params url.Values, cursor string, dst any) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if cursor != "" {
		query.Set("after", cursor)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func filterParams(filters hos.Filters) url.Values {
	params := url.Values{}
	if len(filters.DriverIDs) > 0 {
		params.Set("driverIds", strings.Join(filters.DriverIDs, ","))
	}
	if len(filters.TagIDs) > 0 {
		params.Set("tagIds", strings.Join(filters.TagIDs, ","))
	}
	return params
}
