package download

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 20 * time.Second

// StatusError — ответ с кодом не 2xx (кроме 401/403)
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
}

type Client struct {
	http *resty.Client
}

// New создаёт загрузчик. insecure отключает проверку TLS-сертификата
// (ссылки seafhttp часто отдаются с самоподписанным сертификатом).
func New(insecure bool) *Client {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetDoNotParseResponse(true)

	if insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	return &Client{http: client}
}

// Open начинает скачивание url. Для 401/403 возвращает (nil, nil): файл просто недоступен.
// Вызывающий обязан закрыть тело.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	const op = "clients.download.Open"

	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body := resp.RawBody()

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		_ = body.Close()
		return nil, nil
	case code < 200 || code > 299:
		_ = body.Close()
		return nil, fmt.Errorf("%s: %w", op, &StatusError{URL: url, StatusCode: code})
	}

	return body, nil
}
