package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Storage buckets used by the app
const (
	BucketInvoiceImages = "invoice-images"
	BucketAvatars       = "avatars"
)

// Upload stores an object in the named bucket and returns its public URL
func (c *Client) Upload(bucket, name string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	reqURL := c.config.ServerURL + "/api/v1/storage/" + url.PathEscape(bucket)
	req, err := http.NewRequest(http.MethodPost, reqURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", decodeError(resp.StatusCode, respBody)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// Remove deletes an object from the named bucket
func (c *Client) Remove(bucket, name string) error {
	return c.do(http.MethodDelete, "/api/v1/storage/"+url.PathEscape(bucket)+"/"+url.PathEscape(name), nil, nil)
}

// PublicURL returns the public URL of an object without checking existence
func (c *Client) PublicURL(bucket, name string) string {
	return c.config.ServerURL + "/storage/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}
