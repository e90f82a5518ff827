package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"institute-seed/models"
)

// userAgentTransport setzt den User-Agent-Header auf jede Anfrage.
type userAgentTransport struct {
	Transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "institute-seed/1.0")
	return t.Transport.RoundTrip(req)
}

// APIError ist eine Fehlerantwort der REST-API.
type APIError struct {
	Status  int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cms api: status %d", e.Status)
	}
	return fmt.Sprintf("cms api: status %d: %s: %s", e.Status, e.Name, e.Message)
}

// Unwrap bildet 404 auf ErrNotFound ab.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// metaFields werden von der API geliefert, gehören aber nicht zum Inhalt.
var metaFields = []string{"id", "documentId", "createdAt", "updatedAt", "publishedAt", "locale"}

// StrapiRepository spricht die REST-API eines Strapi-Headless-CMS (v5) an.
type StrapiRepository struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewStrapiRepository erstellt einen Client für die CMS-API unter baseURL.
func NewStrapiRepository(baseURL, token string, timeout time.Duration, logger *zap.Logger) *StrapiRepository {
	return &StrapiRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &userAgentTransport{Transport: http.DefaultTransport},
		},
		logger: logger,
	}
}

func (s *StrapiRepository) FindOne(ctx context.Context, kind models.Kind, filter Filter) (*models.Document, error) {
	if filter.empty() {
		return nil, nil
	}
	op := "$eq"
	if filter.Fold {
		op = "$eqi"
	}
	q := url.Values{}
	q.Set(fmt.Sprintf("filters[%s][%s]", filter.Field, op), filter.Value)
	q.Set("status", "draft")
	q.Set("pagination[pageSize]", "1")

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/"+kind.Plural(), q, nil, &resp); err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", kind, filter.Field, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return toDocument(kind, resp.Data[0]), nil
}

func (s *StrapiRepository) Create(ctx context.Context, kind models.Kind, fields models.Fields) (*models.Document, error) {
	q := url.Values{"status": {"draft"}}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	body := map[string]any{"data": fields}
	if err := s.do(ctx, http.MethodPost, "/api/"+kind.Plural(), q, body, &resp); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return toDocument(kind, resp.Data), nil
}

func (s *StrapiRepository) Update(ctx context.Context, kind models.Kind, id string, fields models.Fields) (*models.Document, error) {
	q := url.Values{"status": {"draft"}}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	body := map[string]any{"data": fields}
	if err := s.do(ctx, http.MethodPut, "/api/"+kind.Plural()+"/"+url.PathEscape(id), q, body, &resp); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return toDocument(kind, resp.Data), nil
}

// Publish veröffentlicht den aktuellen Entwurf eines Dokuments.
func (s *StrapiRepository) Publish(ctx context.Context, kind models.Kind, id string) error {
	q := url.Values{"status": {"published"}}
	body := map[string]any{"data": map[string]any{}}
	if err := s.do(ctx, http.MethodPut, "/api/"+kind.Plural()+"/"+url.PathEscape(id), q, body, nil); err != nil {
		return fmt.Errorf("publish %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *StrapiRepository) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	s.logger.Debug("CMS request", zap.String("method", method), zap.String("path", path))
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error struct {
				Name    string `json:"name"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &payload) == nil {
			apiErr.Name = payload.Error.Name
			apiErr.Message = payload.Error.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toDocument(kind models.Kind, data map[string]any) *models.Document {
	doc := &models.Document{Kind: kind, Fields: models.Fields{}}
	if id, ok := data["documentId"].(string); ok {
		doc.ID = id
	}
	if raw, ok := data["publishedAt"].(string); ok && raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			doc.PublishedAt = &t
		}
	}
	for k, v := range data {
		doc.Fields[k] = v
	}
	for _, k := range metaFields {
		delete(doc.Fields, k)
	}
	return doc
}
