package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// The paid-storage and paid-acceptance reports are produced by long-running
// server-side jobs: create returns a task id, status is polled until "done",
// then the artifact is downloaded.

type taskCreateResponse struct {
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type taskStatusResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func (c *Client) createTask(ctx context.Context, token, path string, from, to time.Time) (string, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format("2006-01-02"))
	query.Set("dateTo", to.Format("2006-01-02"))
	raw, err := c.doRequest(ctx, http.MethodGet, c.analytics, path, token, query, nil)
	if err != nil {
		return "", err
	}
	var resp taskCreateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse task create response: %w", err)
	}
	if resp.Data.TaskID == "" {
		return "", fmt.Errorf("task create returned empty task id")
	}
	return resp.Data.TaskID, nil
}

func (c *Client) taskStatus(ctx context.Context, token, path, taskID string) (string, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, c.analytics, fmt.Sprintf("%s/tasks/%s/status", path, url.PathEscape(taskID)), token, nil, nil)
	if err != nil {
		return "", err
	}
	var resp taskStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse task status response: %w", err)
	}
	return resp.Data.Status, nil
}

func (c *Client) downloadTask(ctx context.Context, token, path, taskID string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, c.analytics, fmt.Sprintf("%s/tasks/%s/download", path, url.PathEscape(taskID)), token, nil, nil)
}

const (
	paidStoragePath = "/api/v1/paid_storage"
	acceptancePath  = "/api/v1/acceptance_report"
)

func (c *Client) CreatePaidStorageTask(ctx context.Context, token string, from, to time.Time) (string, error) {
	return c.createTask(ctx, token, paidStoragePath, from, to)
}

func (c *Client) PaidStorageTaskStatus(ctx context.Context, token, taskID string) (string, error) {
	return c.taskStatus(ctx, token, paidStoragePath, taskID)
}

func (c *Client) DownloadPaidStorageTask(ctx context.Context, token, taskID string) ([]StorageRow, error) {
	raw, err := c.downloadTask(ctx, token, paidStoragePath, taskID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []StorageRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse paid storage report: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateAcceptanceTask(ctx context.Context, token string, from, to time.Time) (string, error) {
	return c.createTask(ctx, token, acceptancePath, from, to)
}

func (c *Client) AcceptanceTaskStatus(ctx context.Context, token, taskID string) (string, error) {
	return c.taskStatus(ctx, token, acceptancePath, taskID)
}

func (c *Client) DownloadAcceptanceTask(ctx context.Context, token, taskID string) ([]AcceptanceRow, error) {
	raw, err := c.downloadTask(ctx, token, acceptancePath, taskID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []AcceptanceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse acceptance report: %w", err)
	}
	return rows, nil
}
