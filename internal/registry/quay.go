package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
)

const (
	quayBaseURL   = "https://quay.io"
	quayNamespace = "biocontainers"
)

// Quay searches the biocontainers organisation on quay.io.
type Quay struct {
	baseURL string
	client  *http.Client
}

// NewQuay creates a Quay registry with a default HTTP client.
func NewQuay() *Quay {
	return &Quay{
		baseURL: quayBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewQuayWithClient creates a Quay registry against baseURL with a custom
// HTTP client.
func NewQuayWithClient(baseURL string, client *http.Client) *Quay {
	return &Quay{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name returns "quay.io/biocontainers"
func (q *Quay) Name() string {
	return "quay.io/" + quayNamespace
}

type findResponse struct {
	Results []struct {
		Kind string `json:"kind"`
		Href string `json:"href"`
	} `json:"results"`
}

type repositoryResponse struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Tags      map[string]struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Query finds biocontainers repositories matching name and lists every
// tag of each, naturally sorted newest first.
func (q *Quay) Query(ctx context.Context, name string) ([]Image, error) {
	var found findResponse
	if err := q.get(ctx, "/api/v1/find/all?query="+url.QueryEscape(name), &found); err != nil {
		return nil, fmt.Errorf("search %s: %w", q.Name(), err)
	}

	var images []Image
	for _, entry := range found.Results {
		if entry.Kind != "repository" || !strings.Contains(entry.Href, quayNamespace) {
			continue
		}

		var repo repositoryResponse
		if err := q.get(ctx, "/api/v1"+entry.Href, &repo); err != nil {
			return nil, fmt.Errorf("list tags of %s: %w", entry.Href, err)
		}

		tags := make([]string, 0, len(repo.Tags))
		for _, t := range repo.Tags {
			tags = append(tags, t.Name)
		}
		sort.Slice(tags, func(i, j int) bool { return natural.Less(tags[j], tags[i]) })

		for _, tag := range tags {
			images = append(images, Image{
				Name:      repo.Name,
				Tag:       tag,
				Reference: fmt.Sprintf("quay.io/%s/%s:%s", repo.Namespace, repo.Name, tag),
				Provider:  q.Name(),
			})
		}
	}
	return images, nil
}

func (q *Quay) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Registry = (*Quay)(nil)
