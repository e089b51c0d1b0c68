package seafile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

var ErrNotConfigured = errors.New("seafile is not configured")

// Entry — элемент каталога в библиотеке Seafile
type Entry struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Size  int64  `json:"size,omitempty"`
	ID    string `json:"id,omitempty"`
	Mtime int64  `json:"mtime,omitempty"`
}

func (e Entry) IsFile() bool {
	return e.Type == "file"
}

// StatusError возвращается при ответе Seafile с кодом не 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("seafile responded with status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	http   *resty.Client
	repoID string
}

// New создаёт клиента. server может быть как хостом, так и полным URL.
func New(server, repoID, token string) *Client {
	base := strings.TrimRight(server, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	client := resty.New().
		SetBaseURL(base+"/api2").
		SetTimeout(defaultTimeout).
		SetHeader("Authorization", "Token "+token)

	return &Client{
		http:   client,
		repoID: repoID,
	}
}

// ListDirectory возвращает содержимое каталога библиотеки.
func (c *Client) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	const op = "clients.seafile.ListDirectory"

	var entries []Entry

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("p", normalizePath(path)).
		SetResult(&entries).
		Get("/repos/" + c.repoID + "/dir/")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%s: %w", op, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()})
	}

	for i := range entries {
		if entries[i].Path == "" {
			entries[i].Path = strings.TrimRight(normalizePath(path), "/") + "/" + entries[i].Name
		}
	}

	return entries, nil
}

// FileDownloadLink возвращает прямую ссылку на скачивание файла.
func (c *Client) FileDownloadLink(ctx context.Context, path string) (string, error) {
	const op = "clients.seafile.FileDownloadLink"

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"p":     normalizePath(path),
			"reuse": "1",
		}).
		Get("/repos/" + c.repoID + "/file/")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%s: %w", op, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()})
	}

	// Seafile отдаёт ссылку текстом, иногда в кавычках
	link := strings.Trim(strings.TrimSpace(resp.String()), `"`)
	if link == "" {
		return "", fmt.Errorf("%s: empty download link", op)
	}

	return link, nil
}

// ListFileLinks возвращает ссылки на все файлы каталога (подкаталоги пропускаются).
func (c *Client) ListFileLinks(ctx context.Context, folder string) ([]string, error) {
	const op = "clients.seafile.ListFileLinks"

	entries, err := c.ListDirectory(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	links := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsFile() {
			continue
		}

		link, err := c.FileDownloadLink(ctx, e.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		links = append(links, link)
	}

	return links, nil
}

// IsAuthError сообщает, что Seafile отказал в доступе.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}

	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}

	return path
}
