package mediahost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultImageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	maxResponseBytes         = 1 << 20
)

type ImageKitConfig struct {
	PrivateKey  string
	PublicKey   string
	URLEndpoint string
	UploadURL   string
}

// ImageKit talks to the ImageKit upload API.
type ImageKit struct {
	cfg        ImageKitConfig
	httpClient *http.Client
}

type imageKitUploadResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

type imageKitErrorResponse struct {
	Message string `json:"message"`
}

func NewImageKit(cfg ImageKitConfig, httpClient *http.Client) (*ImageKit, error) {
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, fmt.Errorf("imagekit private key is empty")
	}
	if strings.TrimSpace(cfg.UploadURL) == "" {
		cfg.UploadURL = defaultImageKitUploadURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageKit{cfg: cfg, httpClient: httpClient}, nil
}

func (k *ImageKit) Upload(ctx context.Context, file *os.File, fileName string, opts UploadOptions) (UploadResult, error) {
	if file == nil {
		return UploadResult{}, &UploadError{Op: "prepare upload", Err: errors.New("file is nil")}
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = filepath.Base(file.Name())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return UploadResult{}, &UploadError{Op: "rewind file", Err: err}
	}

	body, contentType := k.multipartBody(file, fileName, opts)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.UploadURL, body)
	if err != nil {
		return UploadResult{}, &UploadError{Op: "create request", Err: err}
	}
	req.SetBasicAuth(k.cfg.PrivateKey, "")
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, &UploadError{Op: "execute request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return UploadResult{}, &UploadError{Op: "read response", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, &UploadError{
			Op:         "upload",
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.StatusCode),
		}
	}

	var decoded imageKitUploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return UploadResult{}, &UploadError{Op: "decode response", StatusCode: resp.StatusCode, Err: err}
	}

	url := decoded.URL
	if url == "" && decoded.FilePath != "" && k.cfg.URLEndpoint != "" {
		url = strings.TrimRight(k.cfg.URLEndpoint, "/") + "/" + strings.TrimLeft(decoded.FilePath, "/")
	}
	if url == "" {
		return UploadResult{}, &UploadError{Op: "decode response", StatusCode: resp.StatusCode, Message: "response has no url"}
	}

	name := decoded.Name
	if name == "" {
		name = fileName
	}

	return UploadResult{
		URL:        url,
		Name:       name,
		FileID:     decoded.FileID,
		StatusCode: resp.StatusCode,
	}, nil
}

// multipartBody streams the form through a pipe so the file is never held in
// memory. The returned reader must be closed by the caller.
func (k *ImageKit) multipartBody(file *os.File, fileName string, opts UploadOptions) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, file, fileName, opts)
		if closeErr := mw.Close(); err == nil {
			err = closeErr
		}
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, file *os.File, fileName string, opts UploadOptions) error {
	fields := [][2]string{
		{"fileName", fileName},
		{"useUniqueFileName", strconv.FormatBool(opts.UseUniqueFileName)},
	}
	if len(opts.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(opts.Tags, ",")})
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write field %s: %w", field[0], err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file part: %w", err)
	}
	return nil
}

func errorMessage(raw []byte, status int) string {
	var decoded imageKitErrorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		return decoded.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
