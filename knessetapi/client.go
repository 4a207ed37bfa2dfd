// Package knessetapi fetches the plenum attendance feed from the Knesset
// website and parses it into the typed snapshot model. The endpoint is
// unofficial: it wants browser-like headers and its certificate chain is
// broken, so TLS verification is disabled on the default client the same way
// a browser user would click through.
package knessetapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/plenumwatch/knesset-presence/model"
)

// ErrFetch wraps every failure mode of FetchSnapshot: transport errors, bad
// status codes, and undecodable payloads. Callers treat all of them as one
// retryable condition.
var ErrFetch = errors.New("knesset fetch failed")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Client fetches attendance snapshots.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient returns a client for the given feed URL with a dedicated HTTP
// client (30s timeout, TLS verification off for the broken upstream chain).
func NewClient(url string) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // upstream serves an incomplete chain
			},
		},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// attendancePayload mirrors the raw feed shape. Nothing outside this package
// sees it; FetchSnapshot converts it to model types immediately.
type attendancePayload struct {
	MKs []struct {
		MkID        int    `json:"MkId"`
		Firstname   string `json:"Firstname"`
		Lastname    string `json:"Lastname"`
		FactionName string `json:"FactionName"`
		IsCoalition bool   `json:"IsCoalition"`
		IsPresent   bool   `json:"IsPresent"`
		ImagePath   string `json:"ImagePath"`
	} `json:"mks"`
}

// FetchSnapshot fetches and parses one attendance snapshot. Any failure is
// reported as an error wrapping ErrFetch.
func (c *Client) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("%w: feed URL empty", ErrFetch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	// The endpoint rejects requests that don't look like they came from the
	// Knesset site itself.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Referer", "https://www.knesset.gov.il/")
	req.Header.Set("Origin", "https://www.knesset.gov.il")

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	var payload attendancePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}

	snap := &model.Snapshot{FetchedAt: time.Now(), Members: make([]model.Member, 0, len(payload.MKs))}
	for _, mk := range payload.MKs {
		snap.Members = append(snap.Members, model.Member{
			ID:          mk.MkID,
			FirstName:   mk.Firstname,
			LastName:    mk.Lastname,
			Faction:     mk.FactionName,
			Coalition:   mk.IsCoalition,
			Present:     mk.IsPresent,
			PortraitURL: mk.ImagePath,
		})
	}
	return snap, nil
}
