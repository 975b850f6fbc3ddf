// Package shareclient — HTTP-клиент шлюза загрузок: PUT по подписанному URL слота и GET объекта.
package shareclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/yourname/share_lite/pkg/httperrors"
	"github.com/yourname/share_lite/pkg/shareproto"
)

type PutRequest struct {
	// URL — полный URL слота вместе с ?v2=<token>.
	URL         string
	ContentType string
	Reader      io.Reader
	Size        int64
}

// Object — скачанный объект. Body нужно закрыть.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	Attachment  bool
}

type Client interface {
	// Put загружает тело в слот.
	Put(ctx context.Context, req PutRequest) error
	// Get скачивает объект.
	Get(ctx context.Context, rawURL string) (*Object, error)
	// Head возвращает метаданные объекта без тела.
	Head(ctx context.Context, rawURL string) (*Object, error)
}

type httpClient struct {
	c        *http.Client
	progress io.Writer
}

type Option func(*httpClient)

// WithHTTPClient подменяет http.Client (по умолчанию http.DefaultClient).
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) {
		if c != nil {
			h.c = c
		}
	}
}

// WithProgress включает индикатор выполнения для PUT и GET, который рисуется в w.
func WithProgress(w io.Writer) Option {
	return func(h *httpClient) {
		h.progress = w
	}
}

// New создаёт HTTP-клиент шлюза.
func New(opts ...Option) Client {
	h := &httpClient{c: http.DefaultClient}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Put загружает тело в слот. Ответ 201 — успех, остальные коды переводятся в ошибки models.
func (h *httpClient) Put(ctx context.Context, req PutRequest) error {
	body := req.Reader
	var bar *progressBar
	if body != nil && h.progress != nil {
		bar = newProgressBar(h.progress, "Uploading "+objectLabel(req.URL), req.Size)
		body = io.TeeReader(body, progressWriter{bar: bar})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.URL, body)
	if err != nil {
		bar.Fail(err)
		return err
	}
	httpReq.ContentLength = req.Size
	if req.Size == 0 {
		httpReq.Body = http.NoBody
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = shareproto.DefaultContentType
	}
	httpReq.Header.Set("Content-Type", contentType)

	bar.render(true, "")
	resp, err := h.c.Do(httpReq)
	if err != nil {
		bar.Fail(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		err = statusError("PUT", resp)
		bar.Fail(err)
		return err
	}

	bar.Finish()
	return nil
}

// Get скачивает объект и возвращает поток с телом.
func (h *httpClient) Get(ctx context.Context, rawURL string) (*Object, error) {
	return h.fetch(ctx, http.MethodGet, rawURL)
}

func (h *httpClient) Head(ctx context.Context, rawURL string) (*Object, error) {
	return h.fetch(ctx, http.MethodHead, rawURL)
}

func (h *httpClient) fetch(ctx context.Context, method, rawURL string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusError(method, resp)
	}

	size := resp.ContentLength
	if size < 0 {
		if v, perr := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); perr == nil {
			size = v
		}
	}

	body := resp.Body
	if method == http.MethodGet && h.progress != nil {
		bar := newProgressBar(h.progress, "Downloading "+path.Base(req.URL.Path), size)
		bar.render(true, "")
		body = newProgressReadCloser(body, bar)
	}

	return &Object{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        size,
		Attachment:  resp.Header.Get("Content-Disposition") == "attachment",
	}, nil
}

func statusError(method string, resp *http.Response) error {
	if err := httperrors.FromStatus(resp.StatusCode); err != nil {
		return fmt.Errorf("share %s failed: %s: %w", method, resp.Status, err)
	}
	return fmt.Errorf("share %s failed: %s", method, resp.Status)
}

func objectLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return path.Base(u.Path)
}
