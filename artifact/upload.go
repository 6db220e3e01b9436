package artifact

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/hscells/taxifare/faults"
	"github.com/pkg/errors"
)

// Uploader pushes a local artifact to a remote store under a name.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) error
}

// HTTPUploader PUTs artifacts to BaseURL/name. Object stores which accept signed or anonymous PUT requests (S3, GCS
// XML API, minio) can be targeted this way.
type HTTPUploader struct {
	BaseURL string
	Client  *http.Client
	Header  http.Header
}

// NewHTTPUploader creates an uploader for a base URL.
func NewHTTPUploader(baseURL string) HTTPUploader {
	return HTTPUploader{BaseURL: baseURL, Client: http.DefaultClient}
}

func (u HTTPUploader) Upload(ctx context.Context, localPath, name string) error {
	if len(u.BaseURL) == 0 {
		return faults.Newf(faults.Upload, "artifact", "upload_url", "no upload url configured")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return faults.New(faults.Upload, "artifact", localPath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return faults.New(faults.Upload, "artifact", localPath, err)
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(u.BaseURL, "/"), strings.TrimLeft(name, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return faults.New(faults.Upload, "artifact", url, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range u.Header {
		req.Header[k] = v
	}

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return faults.New(faults.Upload, "artifact", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := ioutil.ReadAll(resp.Body)
		return faults.New(faults.Upload, "artifact", url, errors.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body))))
	}
	return nil
}

// Discard is an uploader which does nothing.
type Discard struct{}

func (Discard) Upload(ctx context.Context, localPath, name string) error {
	return nil
}
