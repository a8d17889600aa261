package fetcher

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/Leventi/bl-parser/internal/config"

	"github.com/PuerkitoBio/goquery"
)

// ErrUpstream indicates that the source site could not be fetched: a request
// failed, a step returned a non-200 status, or the anti-forgery token was
// missing from the landing page.
var ErrUpstream = errors.New("failed to get data from source site")

// Fetcher performs the two-step interaction with the registry site:
// a GET that issues session cookies and carries the anti-forgery token,
// then a POST of an empty-filter search that returns the full table.
// A single failed step aborts the fetch; there are no retries.
type Fetcher struct {
	client *http.Client
	cfg    config.FetcherConfig
}

// New creates a Fetcher with a cookie-keeping HTTP client
func New(cfg config.FetcherConfig) *Fetcher {
	// Cookie jar for session management: the search endpoint only answers
	// requests that carry the cookies issued by the landing page.
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Printf("Warning: Failed to create cookie jar: %v", err)
		jar = nil
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.GetTimeout(),
			Jar:     jar,
		},
		cfg: cfg,
	}
}

// Fetch returns the raw markup of the full registry table.
func (f *Fetcher) Fetch() (string, error) {
	landing, err := f.get(f.cfg.CookiesURL, f.cfg.CookieHeaders)
	if err != nil {
		return "", err
	}

	token := extractToken(landing, f.cfg.TokenField)
	if token == "" {
		log.Printf("[Fetcher] Anti-forgery token %q not found in landing page", f.cfg.TokenField)
		return "", fmt.Errorf("token %q not present in landing page: %w", f.cfg.TokenField, ErrUpstream)
	}

	form := url.Values{}
	for key, value := range f.cfg.Payload {
		form.Set(key, value)
	}
	form.Set(f.cfg.TokenField, token)

	body, err := f.post(f.cfg.TableURL, f.cfg.TableHeaders, form)
	if err != nil {
		return "", err
	}

	log.Printf("[Fetcher] Fetched registry table (%d bytes)", len(body))
	return body, nil
}

func (f *Fetcher) get(rawURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, headers)

	return f.do(req)
}

func (f *Fetcher) post(rawURL string, headers map[string]string, form url.Values) (string, error) {
	req, err := http.NewRequest("POST", rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, headers)

	return f.do(req)
}

func (f *Fetcher) do(req *http.Request) (string, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("[Fetcher] Request to %s failed: %v", req.URL, err)
		return "", fmt.Errorf("request to %s failed (%v): %w", req.URL, err, ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Fetcher] Request to %s returned status %d", req.URL, resp.StatusCode)
		return "", fmt.Errorf("request to %s returned status %d: %w", req.URL, resp.StatusCode, ErrUpstream)
	}

	// Accept-Encoding is set explicitly in the header profile, so the
	// transport does not decompress for us.
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s (%v): %w", req.URL, err, ErrUpstream)
	}

	return string(body), nil
}

// applyHeaders sets the configured browser-like header profile
func applyHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// extractToken pulls the hidden anti-forgery input value out of the landing
// page markup. Returns "" when the input is absent.
func extractToken(markup, field string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	token, _ := doc.Find(fmt.Sprintf("input[name=%s]", field)).Attr("value")
	return token
}
