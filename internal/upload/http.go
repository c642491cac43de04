package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// HTTPUploader posts files as multipart form data to {BaseURL}/{entity}/{field}/upload.
type HTTPUploader struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPUploader creates an HTTPUploader. A nil client falls back to http.DefaultClient.
func NewHTTPUploader(baseURL string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPUploader{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
	}
}

// Upload implements Uploader. The decoded JSON response is returned as is.
func (u *HTTPUploader) Upload(ctx context.Context, entityName, field string, f *File) (any, error) {
	body, contentType, err := multipartBody(f)
	if err != nil {
		return nil, err
	}

	endpoint := u.BaseURL + "/" + url.PathEscape(entityName) + "/" + url.PathEscape(field) + "/upload"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build upload request")
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := u.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "upload request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload response")
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{StatusCode: res.StatusCode, Body: string(raw)}
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "upload response is not json")
	}

	return out, nil
}

func multipartBody(f *File) (io.Reader, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(fileName(f))+`"`)

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create multipart part")
	}

	if _, err = part.Write(f.Data); err != nil {
		return nil, "", errors.Wrap(err, "failed to write multipart part")
	}

	if err = w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to close multipart writer")
	}

	return &buf, w.FormDataContentType(), nil
}

func fileName(f *File) string {
	if f.Name == "" {
		return "blob"
	}

	return f.Name
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
