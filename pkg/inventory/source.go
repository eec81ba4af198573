package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

// DefaultPageSize is large enough to return a whole inventory in one page.
const DefaultPageSize = 100000

// DefaultTimeout bounds one snapshot request.
const DefaultTimeout = 10 * time.Second

const maxPayloadSize = 64 << 20

// Source provides complete inventory snapshots.
type Source interface {
	// FetchSnapshot returns every product currently in the inventory.
	// Failures are reported as *FetchError.
	FetchSnapshot(ctx context.Context) ([]model.ProductStockRecord, error)
}

// HTTPOptions configures the inventory service client.
type HTTPOptions struct {
	BaseURL       string
	ProductsPath  string
	PageSizeParam string
	PageSize      int
	Token         string
	Timeout       time.Duration
}

// HTTPSource fetches the product list from the remote inventory service.
type HTTPSource struct {
	opts   HTTPOptions
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSource creates an inventory client. Zero option values fall back to
// the defaults.
func NewHTTPSource(opts HTTPOptions, logger *slog.Logger) *HTTPSource {
	if opts.ProductsPath == "" {
		opts.ProductsPath = "/products"
	}
	if opts.PageSizeParam == "" {
		opts.PageSizeParam = "limit"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &HTTPSource{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

func (s *HTTPSource) endpoint() (string, error) {
	u, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse inventory url: %w", err)
	}
	u = u.JoinPath(s.opts.ProductsPath)

	q := u.Query()
	q.Set(s.opts.PageSizeParam, strconv.Itoa(s.opts.PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *HTTPSource) FetchSnapshot(ctx context.Context) ([]model.ProductStockRecord, error) {
	endpoint, err := s.endpoint()
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("create inventory request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if s.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadSize))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &FetchError{Kind: KindPayload, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode products: %w", err)}
	}

	records, err := normalizeDocument(doc, s.logger)
	if err != nil {
		return nil, &FetchError{Kind: KindPayload, StatusCode: resp.StatusCode, Err: err}
	}

	s.logger.Debug("inventory snapshot fetched", "products", len(records))
	return records, nil
}

// FileSource reads a snapshot from a YAML or JSON document on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source backed by the file at path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (f *FileSource) FetchSnapshot(_ context.Context) ([]model.ProductStockRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("read snapshot file %s: %w", f.path, err)}
	}

	// YAML is a superset of JSON, so one decoder covers both formats.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FetchError{Kind: KindPayload, Err: fmt.Errorf("parse snapshot file %s: %w", f.path, err)}
	}

	records, err := normalizeDocument(doc, f.logger)
	if err != nil {
		return nil, &FetchError{Kind: KindPayload, Err: err}
	}
	return records, nil
}
