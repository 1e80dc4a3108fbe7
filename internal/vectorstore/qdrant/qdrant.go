package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursechat/internal/domain"
)

// pointNamespace derives stable Qdrant point UUIDs from logical ids, so
// re-upserting the same record always targets the same point.
var pointNamespace = uuid.MustParse("8f3a1c52-6d1e-4b09-9cf4-2a7d50f4a7d1")

// Index is a minimal REST client to one Qdrant collection. The collection
// is created lazily with cosine distance on the first upsert, taking its
// dimension from the first vector seen.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu      sync.Mutex
	created bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Upsert writes points, creating the collection when missing.
func (x *Index) Upsert(points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := x.ensureCollection(len(points[0].Vector)); err != nil {
		return err
	}
	body := make([]map[string]any, len(points))
	for i, p := range points {
		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		// keep the logical id recoverable from the payload
		payload["_id"] = p.ID
		body[i] = map[string]any{
			"id":      pointUUID(p.ID),
			"vector":  p.Vector,
			"payload": payload,
		}
	}
	return x.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.collection),
		map[string]any{"points": body}, nil)
}

// Search runs a filtered nearest-neighbor query.
func (x *Index) Search(vector []float64, filter domain.Filter, limit int) ([]domain.ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := filterJSON(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := x.postJSON(fmt.Sprintf("%s/collections/%s/points/search", x.url, x.collection), req, &resp)
	if err != nil {
		return nil, err
	}
	hits := make([]domain.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, _ := r.Payload["_id"].(string)
		hits = append(hits, domain.ScoredPoint{
			Point: domain.Point{ID: id, Payload: r.Payload},
			Score: r.Score,
		})
	}
	return hits, nil
}

// Has reports whether a point with the given logical id exists.
func (x *Index) Has(id string) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s/points/%s", x.url, x.collection, pointUUID(id))
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	x.auth(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
}

func (x *Index) ensureCollection(dimension int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.created {
		return nil
	}
	if dimension <= 0 {
		return errors.New("qdrant: invalid vector dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// 409 means the collection already exists, which is fine
	err := x.putJSON(fmt.Sprintf("%s/collections/%s", x.url, x.collection), body, nil)
	if err != nil && !errors.Is(err, errConflict) {
		return err
	}
	x.created = true
	return nil
}

func filterJSON(filter domain.Filter) map[string]any {
	var must []map[string]any
	if filter.CourseTitle != nil {
		must = append(must, map[string]any{
			"key":   "course_title",
			"match": map[string]any{"value": *filter.CourseTitle},
		})
	}
	if filter.LessonNumber != nil {
		must = append(must, map[string]any{
			"key":   "lesson_number",
			"match": map[string]any{"value": *filter.LessonNumber},
		})
	}
	if must == nil {
		return nil
	}
	return map[string]any{"must": must}
}

func pointUUID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

var errConflict = errors.New("conflict")

func (x *Index) auth(req *http.Request) {
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
}

func (x *Index) putJSON(url string, body, out any) error {
	return x.doJSON(http.MethodPut, url, body, out)
}

func (x *Index) postJSON(url string, body, out any) error {
	return x.doJSON(http.MethodPost, url, body, out)
}

func (x *Index) doJSON(method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	x.auth(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
