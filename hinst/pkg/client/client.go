package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	hinsthttp "github.com/angelo-monroy/hidden-instability/hinst/pkg/http"
	"go.uber.org/zap"
)

const (
	maskEndpoint       = "v1/mask"
	detectionsEndpoint = "v1/detections"
	reportEndpoint     = "v1/report"
)

type Client struct {
	client  *http.Client
	logger  *zap.Logger
	baseUrl string
}

func New(baseUrl string, logger *zap.Logger) *Client {
	return &Client{
		client:  &http.Client{},
		logger:  logger,
		baseUrl: strings.TrimRight(baseUrl, "/"),
	}
}

func (c *Client) Mask(ctx context.Context, s glucose.Series) (*hinsthttp.MaskResponse, error) {
	var resp hinsthttp.MaskResponse
	if err := c.post(ctx, maskEndpoint, hinsthttp.SeriesRequest{Series: s}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Mask) != len(s) {
		return nil, fmt.Errorf("mask has %d entries for %d readings", len(resp.Mask), len(s))
	}
	return &resp, nil
}

func (c *Client) Detections(ctx context.Context, s glucose.Series) (*hinsthttp.DetectionsResponse, error) {
	var resp hinsthttp.DetectionsResponse
	if err := c.post(ctx, detectionsEndpoint, hinsthttp.SeriesRequest{Series: s}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Report(ctx context.Context, s glucose.Series, deviceID string) (*hinsthttp.ReportResponse, error) {
	var resp hinsthttp.ReportResponse
	req := hinsthttp.SeriesRequest{Series: s, DeviceID: deviceID}
	if err := c.post(ctx, reportEndpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	c.logger.Debug("making analysis request",
		zap.String("endpoint", endpoint),
		zap.Int("bytes", len(b)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/"+endpoint, bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Debug("failed to decode analysis response", zap.Error(err))
		return err
	}
	return nil
}
