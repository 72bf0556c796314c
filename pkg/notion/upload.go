package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/yuutai-cli/internal/resilience"
)

type createUploadRequest struct {
	Mode        string `json:"mode"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type uploadObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type fileUploadRef struct {
	ID string `json:"id"`
}

type fileValue struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	FileUpload fileUploadRef `json:"file_upload"`
}

type filesProperty struct {
	Files []fileValue `json:"files"`
}

type attachRequest struct {
	Properties map[string]filesProperty `json:"properties"`
}

func (c *notionClient) CreateFileUpload(ctx context.Context, filename, contentType string) (string, error) {
	body, err := json.Marshal(createUploadRequest{
		Mode:        "single_part",
		Filename:    filename,
		ContentType: contentType,
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: encode file upload")
	}

	var out uploadObject
	if err := c.do(ctx, "create file upload", http.MethodPost, "/file_uploads", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", eris.New("notion: create file upload: response has no id")
	}
	return out.ID, nil
}

func (c *notionClient) SendFileUpload(ctx context.Context, uploadID, path, filename, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "notion: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	if filename == "" {
		filename = filepath.Base(path)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return eris.Wrap(err, "notion: build multipart body")
	}
	if _, err := io.Copy(part, f); err != nil {
		return eris.Wrapf(err, "notion: read %s", path)
	}
	if err := mw.Close(); err != nil {
		return eris.Wrap(err, "notion: close multipart body")
	}

	return c.do(ctx, "send file upload", http.MethodPost, "/file_uploads/"+uploadID+"/send", mw.FormDataContentType(), &buf, nil)
}

func (c *notionClient) AttachFileUpload(ctx context.Context, pageID, property, filename, uploadID string) error {
	body, err := json.Marshal(attachRequest{
		Properties: map[string]filesProperty{
			property: {Files: []fileValue{{
				Name:       filename,
				Type:       "file_upload",
				FileUpload: fileUploadRef{ID: uploadID},
			}}},
		},
	})
	if err != nil {
		return eris.Wrap(err, "notion: encode attach request")
	}
	return c.do(ctx, "attach file upload", http.MethodPatch, "/pages/"+pageID, "application/json", bytes.NewReader(body), nil)
}

// do sends one raw API request. Non-2xx responses become a
// *resilience.StatusError carrying the response body.
func (c *notionClient) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrapf(err, "notion: %s: build request", op)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "notion: %s", op)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "notion: %s: read body", op)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resilience.NewStatusError("notion: "+op, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrapf(err, "notion: %s: decode response", op)
		}
	}
	return nil
}
