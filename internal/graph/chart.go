package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Chart is a sampled series ready to render.
type Chart struct {
	Label  string
	Series Series
	YMin   float64
	YMax   float64
}

// Renderer turns a chart into a public image URL.
type Renderer interface {
	Render(ctx context.Context, chart Chart) (string, error)
}

// QuickChartRenderer renders line charts through the QuickChart
// short-URL API. Requests are not retried.
type QuickChartRenderer struct {
	client *resty.Client
	width  int
	height int
}

// NewQuickChartRenderer creates a renderer against baseURL, e.g. https://quickchart.io.
func NewQuickChartRenderer(baseURL string) *QuickChartRenderer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	return &QuickChartRenderer{client: client, width: 600, height: 400}
}

type createRequest struct {
	Chart           chartConfig `json:"chart"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	BackgroundColor string      `json:"backgroundColor"`
	Format          string      `json:"format"`
}

type chartConfig struct {
	Type    string       `json:"type"`
	Data    chartData    `json:"data"`
	Options chartOptions `json:"options"`
}

type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

type chartDataset struct {
	Label       string     `json:"label"`
	Data        []*float64 `json:"data"`
	Fill        bool       `json:"fill"`
	BorderColor string     `json:"borderColor"`
	PointRadius int        `json:"pointRadius"`
	SpanGaps    bool       `json:"spanGaps"`
}

type chartOptions struct {
	Scales chartScales `json:"scales"`
}

type chartScales struct {
	Y chartAxis `json:"y"`
}

type chartAxis struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type createResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// Render posts the chart config and returns the short URL.
func (r *QuickChartRenderer) Render(ctx context.Context, chart Chart) (string, error) {
	var out createResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(r.request(chart)).
		SetResult(&out).
		Post("/chart/create")
	if err != nil {
		return "", fmt.Errorf("quickchart request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("quickchart: unexpected status %s", resp.Status())
	}
	if !out.Success || out.URL == "" {
		return "", errors.New("quickchart: no chart url in response")
	}
	return out.URL, nil
}

func (r *QuickChartRenderer) request(chart Chart) createRequest {
	labels := make([]string, len(chart.Series.X))
	for i, x := range chart.Series.X {
		labels[i] = strconv.FormatFloat(x, 'f', 2, 64)
	}
	data := make([]*float64, len(chart.Series.Y))
	for i, y := range chart.Series.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		data[i] = &y
	}

	return createRequest{
		Chart: chartConfig{
			Type: "line",
			Data: chartData{
				Labels: labels,
				Datasets: []chartDataset{{
					Label:       chart.Label,
					Data:        data,
					BorderColor: "rgb(88, 101, 242)",
				}},
			},
			Options: chartOptions{Scales: chartScales{Y: chartAxis{Min: chart.YMin, Max: chart.YMax}}},
		},
		Width:           r.width,
		Height:          r.height,
		BackgroundColor: "white",
		Format:          "png",
	}
}
