// Package geocode resolves coordinates to postal addresses through a
// Nominatim-compatible reverse geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rideshare/internal/config"
	"rideshare/internal/geo"
)

// cachePrecision groups lookups into cells of roughly 38x19 meters.
const cachePrecision = 8

// Address is a resolved postal address.
type Address struct {
	DisplayName string    `json:"display_name"`
	Road        string    `json:"road,omitempty"`
	City        string    `json:"city,omitempty"`
	Postcode    string    `json:"postcode,omitempty"`
	Country     string    `json:"country,omitempty"`
	Point       geo.Point `json:"point"`
}

// Cache stores resolved addresses by geohash cell.
type Cache interface {
	GetAddress(ctx context.Context, cell string, dest any) (bool, error)
	SetAddress(ctx context.Context, cell string, address any, ttl time.Duration) error
}

// Client calls the reverse geocoding endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	enabled    bool
	cacheTTL   time.Duration
	httpClient *http.Client
	cache      Cache
	log        *zap.Logger
}

// NewClient creates a new reverse geocoding client. cache may be nil.
func NewClient(cfg config.GeocoderConfig, cache Cache, log *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		enabled:   cfg.Enabled,
		cacheTTL:  cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
		log:   log.Named("geocode"),
	}
}

// nominatimResponse is the subset of the jsonv2 reverse payload we read.
type nominatimResponse struct {
	Error       string `json:"error"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		Road     string `json:"road"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Reverse returns the address closest to p.
func (c *Client) Reverse(ctx context.Context, p geo.Point) (*Address, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}

	cell := geo.Geohash(p, cachePrecision)
	if c.cache != nil {
		var cached Address
		hit, err := c.cache.GetAddress(ctx, cell, &cached)
		if err != nil {
			c.log.Warn("address cache read failed", zap.String("cell", cell), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	addr, err := c.fetch(ctx, p)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetAddress(ctx, cell, addr, c.cacheTTL); err != nil {
			c.log.Warn("address cache write failed", zap.String("cell", cell), zap.Error(err))
		}
	}

	return addr, nil
}

func (c *Client) fetch(ctx context.Context, p geo.Point) (*Address, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if payload.Error != "" || payload.DisplayName == "" {
		return nil, ErrNotFound
	}

	addr := &Address{
		DisplayName: payload.DisplayName,
		Road:        payload.Address.Road,
		City:        firstNonEmpty(payload.Address.City, payload.Address.Town, payload.Address.Village),
		Postcode:    payload.Address.Postcode,
		Country:     payload.Address.Country,
		Point:       p,
	}

	lat, latErr := strconv.ParseFloat(payload.Lat, 64)
	lng, lngErr := strconv.ParseFloat(payload.Lon, 64)
	if latErr == nil && lngErr == nil {
		addr.Point = geo.Point{Lat: lat, Lng: lng}
	}

	return addr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
