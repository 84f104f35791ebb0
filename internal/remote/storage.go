package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Object is the metadata returned for an uploaded object.
type Object struct {
	Name        string `json:"name"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
	MD5Hash     string `json:"md5Hash"`
}

// UploadObject stores data under name in the project's bucket.
func (c *Client) UploadObject(ctx context.Context, name, contentType string, data []byte) (*Object, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	target := fmt.Sprintf("%s/b/%s/o?name=%s", c.storageURL, url.PathEscape(c.bucket), url.QueryEscape(name))
	if data == nil {
		data = []byte{}
	}
	var obj Object
	if err := c.do(ctx, http.MethodPost, "o/"+name, target, data, contentType, &obj); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	c.logger.Info("Uploaded object", slog.String("name", name), slog.Int("bytes", len(data)))
	return &obj, nil
}
