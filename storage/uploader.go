package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

var ErrStorageDisabled = errors.New("file storage is not configured")

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"url"`
	ETag     string `json:"-"`
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string

	// KeyFromURL переводит публичный URL обратно в ключ объекта.
	KeyFromURL(rawURL string) string
}

// KeyFromURL отрезает publicBase от rawURL. Для URL вне бакета берётся последний сегмент пути.
func KeyFromURL(publicBase, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	base := strings.TrimRight(publicBase, "/")
	if base != "" && strings.HasPrefix(rawURL, base+"/") {
		key := strings.TrimPrefix(rawURL, base+"/")
		if i := strings.IndexAny(key, "?#"); i >= 0 {
			key = key[:i]
		}
		if unescaped, err := url.PathUnescape(key); err == nil {
			return unescaped
		}
		return key
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return ""
	}
	last := path.Base(u.Path)
	if last == "/" || last == "." {
		return ""
	}
	return last
}

type DeleteResult struct {
	URL     string `json:"url"`
	Key     string `json:"key,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

const deleteConcurrency = 4

// DeleteURLs удаляет объекты по URL параллельно. Каждый URL обрабатывается ровно один раз,
// ошибка одного удаления не останавливает остальные.
func DeleteURLs(ctx context.Context, uploader FileUploader, urls []string) []DeleteResult {
	seen := make(map[string]struct{}, len(urls))
	distinct := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}

	results := make([]DeleteResult, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for i, u := range distinct {
		g.Go(func() error {
			res := DeleteResult{URL: u, Key: uploader.KeyFromURL(u)}
			if res.Key == "" {
				res.Error = "could not derive object key from url"
				results[i] = res
				return nil
			}
			if err := uploader.Delete(gctx, res.Key); err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Disabled используется, когда R2 не настроен.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}

func (Disabled) Delete(context.Context, string) error { return ErrStorageDisabled }

func (Disabled) GetPublicURL(string) string { return "" }

func (Disabled) KeyFromURL(rawURL string) string { return KeyFromURL("", rawURL) }
