// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://app.asana.com/api/1.0"

// APIError is a non-2xx response from the Asana API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana api: status %d: %s", e.StatusCode, e.Body)
}

// Workspace is an Asana workspace.
type Workspace struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// Member is a workspace user.
type Member struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Project is an Asana project.
type Project struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// Task is an Asana task within a project.
type Task struct {
	GID       string  `json:"gid"`
	Name      string  `json:"name"`
	Notes     string  `json:"notes,omitempty"`
	Completed bool    `json:"completed"`
	DueOn     string  `json:"due_on,omitempty"`
	Assignee  *Member `json:"assignee,omitempty"`
}

// Client is a thin wrapper over the Asana REST API. The http.Client is
// expected to carry OAuth credentials (see OAuthConfig.HTTPClient).
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: defaultBaseURL}
}

// page is the generic response envelope: data plus an optional offset
// cursor for the next page.
type page struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
}

// getAll fetches every page of a collection endpoint, following the
// offset cursor until exhausted, and decodes each page's data into a
// slice appended to out.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out []T
	offset := ""
	for {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("limit", "100")
		if offset != "" {
			q.Set("offset", offset)
		}

		p, err := c.get(ctx, path+"?"+q.Encode())
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := json.Unmarshal(p.Data, &batch); err != nil {
			return nil, fmt.Errorf("decode %s page: %w", path, err)
		}
		out = append(out, batch...)

		if p.NextPage == nil || p.NextPage.Offset == "" {
			return out, nil
		}
		offset = p.NextPage.Offset
	}
}

func (c *Client) get(ctx context.Context, pathAndQuery string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call asana: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read asana response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode asana response: %w", err)
	}
	return &p, nil
}

// Workspaces lists the workspaces visible to the authorized user.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	return getAll[Workspace](ctx, c, "/workspaces", nil)
}

// Projects lists the projects in a workspace.
func (c *Client) Projects(ctx context.Context, workspaceGID string) ([]Project, error) {
	q := url.Values{}
	q.Set("workspace", workspaceGID)
	return getAll[Project](ctx, c, "/projects", q)
}

// ProjectTasks lists the tasks of a project with the fields the hub
// imports.
func (c *Client) ProjectTasks(ctx context.Context, projectGID string) ([]Task, error) {
	q := url.Values{}
	q.Set("opt_fields", "name,notes,completed,due_on,assignee.name")
	return getAll[Task](ctx, c, "/projects/"+projectGID+"/tasks", q)
}

// workspaceMembers lists the users of a workspace. Callers should go
// through MemberCache.
func (c *Client) workspaceMembers(ctx context.Context, workspaceGID string) ([]Member, error) {
	q := url.Values{}
	q.Set("opt_fields", "name,email")
	return getAll[Member](ctx, c, "/workspaces/"+workspaceGID+"/users", q)
}
