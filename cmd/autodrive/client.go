package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

// Client talks to one session of the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends body as JSON and decodes the reply into out. Error replies carry
// the server's message.
func (c *Client) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s: %s - %s", method, path, resp.Status, errResp.Error)
		}
		return fmt.Errorf("%s %s: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession starts a new session and binds the client to it.
func (c *Client) CreateSession(configID string) (*service.SessionInfo, error) {
	var body any
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do("POST", "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

// Resume binds the client to an existing session.
func (c *Client) Resume(sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var session service.SessionInfo
	if err := c.do("GET", c.sessionPath(""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Act(action engine.Action, vehicleIndex int) (*service.ActionResult, error) {
	body := map[string]any{"action": action}
	if action == engine.ActionSelectVehicle {
		body["vehicle_index"] = vehicleIndex
	}

	var result service.ActionResult
	if err := c.do("POST", c.sessionPath("/actions"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Tick(input engine.TickInput) (*service.ActionResult, error) {
	var result service.ActionResult
	if err := c.do("POST", c.sessionPath("/tick"), input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// City fetches the session's map and rebuilds it locally.
func (c *Client) City() (*citymap.GridMap, error) {
	var view service.MapView
	if err := c.do("GET", c.sessionPath("/map"), nil, &view); err != nil {
		return nil, err
	}
	return citymap.FromSnapshot(citymap.Snapshot{
		Buildings:     view.Buildings,
		Intersections: view.Intersections,
		RoadTypes:     view.RoadTypes,
	})
}
