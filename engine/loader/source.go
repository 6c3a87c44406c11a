package loader

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var errInvalidDataURI = errors.New("invalid data URI")

// fetched is a payload together with a resolver for resources referenced relative to it.
type fetched struct {
	data    []byte
	resolve uriResolver
}

// fetch retrieves the bytes behind location. Supported forms are http(s) URLs, file URLs,
// data URIs and plain filesystem paths.
func (l *loader) fetch(ctx context.Context, location string) (*fetched, error) {
	switch {
	case strings.HasPrefix(location, "data:"):
		data, err := decodeDataURI(location)
		if err != nil {
			return nil, err
		}
		return &fetched{data: data}, nil

	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		base, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		data, err := l.fetchHTTP(ctx, base.String())
		if err != nil {
			return nil, err
		}
		return &fetched{
			data: data,
			resolve: func(uri string) ([]byte, error) {
				ref, err := url.Parse(uri)
				if err != nil {
					return nil, fmt.Errorf("invalid buffer URI %q: %w", uri, err)
				}
				return l.fetchHTTP(ctx, base.ResolveReference(ref).String())
			},
		}, nil

	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		return l.fetchFile(filepath.FromSlash(u.Path))

	default:
		return l.fetchFile(location)
	}
}

func (l *loader) fetchFile(p string) (*fetched, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	dir := filepath.Dir(p)
	return &fetched{
		data: data,
		resolve: func(uri string) ([]byte, error) {
			unescaped, err := url.PathUnescape(uri)
			if err != nil {
				unescaped = uri
			}
			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(unescaped)))
			if err != nil {
				return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
			}
			return data, nil
		},
	}, nil
}

func (l *loader) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s fetching %s", resp.Status, path.Base(location))
	}

	var body io.Reader = resp.Body
	if l.maxBytes > 0 {
		body = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}

// decodeDataURI decodes a data URI. Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if !strings.HasPrefix(uri, "data:") || commaIdx < 0 {
		return nil, errInvalidDataURI
	}

	header := uri[len("data:"):commaIdx]
	payload := uri[commaIdx+1:]

	if !strings.HasSuffix(header, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidDataURI, err)
		}
		return []byte(unescaped), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}
