package flagkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "flagkit-go"

// featurePayload is the decoded shape of a GET
// {api_host}/api/features/{client_key} response (spec §4.6, §6): the
// server sends either a plaintext "features" object or an
// "encryptedFeatures" ciphertext, never both.
type featurePayload struct {
	Status            int             `json:"status"`
	Features          json.RawMessage `json:"features"`
	DateUpdated       time.Time       `json:"dateUpdated"`
	EncryptedFeatures string          `json:"encryptedFeatures"`
	Etag              string          `json:"-"`
}

// fetchClient performs the raw HTTP half of a feature fetch. Split out
// of Repository so the retry/circuit-breaker wrapping in repository.go
// has a single, trivially mockable seam.
type fetchClient struct {
	httpClient *http.Client
	apiHost    string
	clientKey  string
}

func (f *fetchClient) apiURL() string {
	return fmt.Sprintf("%s/api/features/%s", f.apiHost, f.clientKey)
}

// fetch issues the GET request and decodes the JSON envelope. A 304
// response (matching etag) yields a zero-value payload with
// Status==304 and no error; callers treat that as "nothing changed".
func (f *fetchClient) fetch(ctx context.Context, etag string) (*featurePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &featurePayload{Status: resp.StatusCode, Etag: resp.Header.Get("Etag")}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, Reason: "unexpected status code"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Reason: "reading response body", Err: err}
	}

	var payload featurePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{Reason: "decoding response body", Err: err}
	}
	payload.Status = resp.StatusCode
	payload.Etag = resp.Header.Get("Etag")
	return &payload, nil
}

// resolveFeatures decrypts an encrypted payload when necessary and
// returns the usable FeatureMap plus the raw JSON bytes worth caching
// (spec §7: a DecryptionError, or a FetchError when the payload is
// encrypted but no key was configured). The cached bytes are always the
// plain "features" object's own wire encoding, never the enclosing
// envelope, so a later warm start can unmarshal them straight into a
// FeatureMap.
func resolveFeatures(payload *featurePayload, decryptionKey string) (FeatureMap, []byte, error) {
	if payload.EncryptedFeatures == "" {
		var fm FeatureMap
		if err := json.Unmarshal(payload.Features, &fm); err != nil {
			return nil, nil, &FetchError{Reason: "decoding features object", Err: err}
		}
		return fm, []byte(payload.Features), nil
	}
	if decryptionKey == "" {
		return nil, nil, &FetchError{Reason: "payload is encrypted but no decryption key is configured"}
	}
	plaintext, err := decryptFeatures(payload.EncryptedFeatures, decryptionKey)
	if err != nil {
		return nil, nil, &DecryptionError{Err: err}
	}
	var fm FeatureMap
	if err := json.Unmarshal(plaintext, &fm); err != nil {
		return nil, nil, &DecryptionError{Err: err}
	}
	return fm, plaintext, nil
}
