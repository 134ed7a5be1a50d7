package model

import (
	"crypto/md5" //nolint:gosec // content digest, not a security boundary
	"encoding/hex"
	"encoding/json"
)

// CrawlRecord is one row of the scraped_data table.
// At most one record exists per URL for the lifetime of the store.
type CrawlRecord struct {
	// ID is the auto-increment primary key. Zero until the record is stored.
	ID int64 `json:"id"`

	// URL is the unique key of the record.
	URL string `json:"url"`

	// ResponseBody is the raw page body as decoded text.
	ResponseBody string `json:"response_body"`

	// ResponseHeaders is the JSON-serialized header collection.
	ResponseHeaders string `json:"response_headers"`

	// StatusCode is the HTTP status of the fetch.
	StatusCode int `json:"status_code"`

	// HTTPProtocol is one of "HTTP/1.0", "HTTP/1.1", "HTTP/2.0" or a raw fallback.
	HTTPProtocol string `json:"http_protocol"`

	// Checksum is the hex-encoded MD5 digest of ResponseBody.
	Checksum string `json:"checksum"`
}

// Checksum returns the hex-encoded 128-bit MD5 digest of body.
// The digest is computed over the UTF-8 bytes of the decoded text, so
// byte-identical bodies always produce identical checksums.
func Checksum(body string) string {
	sum := md5.Sum([]byte(body)) //nolint:gosec // see import comment
	return hex.EncodeToString(sum[:])
}

// NewCrawlRecord builds the record persisted for a fetched page.
// The checksum and protocol label are derived here, at save time.
func NewCrawlRecord(page *Page) (*CrawlRecord, error) {
	headers, err := SerializeHeaders(page.Headers)
	if err != nil {
		return nil, err
	}

	return &CrawlRecord{
		URL:             page.URL,
		ResponseBody:    page.Body,
		ResponseHeaders: headers,
		StatusCode:      page.StatusCode,
		HTTPProtocol:    ProtocolLabel(page.ProtoMajor, page.ProtoMinor, page.Proto),
		Checksum:        Checksum(page.Body),
	}, nil
}

// SerializeHeaders encodes a header collection as a JSON object of
// header name to list of values. A nil collection encodes as "{}".
func SerializeHeaders(headers map[string][]string) (string, error) {
	if headers == nil {
		return "{}", nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeHeaders parses the stored header representation back into a map.
func (r *CrawlRecord) DecodeHeaders() (map[string][]string, error) {
	headers := make(map[string][]string)
	if r.ResponseHeaders == "" {
		return headers, nil
	}
	if err := json.Unmarshal([]byte(r.ResponseHeaders), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}
