package asr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

const defaultDashScopeAPIURL = "https://dashscope.aliyuncs.com/api/v1"

// defaultMaxInlineBytes keeps the base64 data URI under the 10 MB request
// limit of the multimodal audio models. Larger files go through the
// temporary upload store.
const defaultMaxInlineBytes = 7 << 20

// Task states reported by the DashScope task API
const (
	taskSucceeded = "SUCCEEDED"
	taskFailed    = "FAILED"
	taskCanceled  = "CANCELED"
	taskUnknown   = "UNKNOWN"
)

// DashScopeConfig configures the native DashScope REST client
type DashScopeConfig struct {
	APIURL       string
	APIKey       string
	PollInterval time.Duration
	HTTPClient   *http.Client
	// MaxInlineBytes is the largest audio file sent as a data URI
	MaxInlineBytes int64
}

// DashScope talks to the native DashScope API. It implements URLTranscriber
// for async file transcription and AudioTranscriber for the multimodal
// audio models.
type DashScope struct {
	client    *http.Client
	apiURL    string
	apiKey    string
	limiter   *rate.Limiter
	maxInline int64
}

// NewDashScope creates a DashScope client with explicit credentials
func NewDashScope(cfg DashScopeConfig) *DashScope {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultDashScopeAPIURL
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxInline := cfg.MaxInlineBytes
	if maxInline <= 0 {
		maxInline = defaultMaxInlineBytes
	}
	return &DashScope{
		client:    client,
		apiURL:    strings.TrimRight(apiURL, "/"),
		apiKey:    cfg.APIKey,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		maxInline: maxInline,
	}
}

// TranscribeURL submits sourceURL as an async transcription task and waits for it
func (d *DashScope) TranscribeURL(ctx context.Context, sourceURL, model string) (models.Transcript, error) {
	body := map[string]interface{}{
		"model": model,
		"input": map[string]interface{}{
			"file_urls": []string{sourceURL},
		},
		"parameters": map[string]interface{}{
			"language_hints": []string{"zh", "en"},
		},
	}

	submitted, err := d.call(ctx, ModeDashScopeURL, http.MethodPost, "/services/audio/asr/transcription", body,
		map[string]string{"X-DashScope-Async": "enable"})
	if err != nil {
		return models.Transcript{}, err
	}

	output, _ := submitted["output"].(map[string]interface{})
	taskID, _ := output["task_id"].(string)
	if taskID == "" {
		return models.Transcript{}, apperrors.ASRBackendError(string(ModeDashScopeURL), "submit returned no task_id", submitted)
	}
	slog.Debug("transcription task submitted", "task_id", taskID, "model", model)

	output, err = d.wait(ctx, taskID)
	if err != nil {
		return models.Transcript{}, err
	}

	raw := models.RawPayload(output)
	if resultURL := transcriptionURL(output); resultURL != "" {
		fetched, err := d.fetchResult(ctx, resultURL)
		if err != nil {
			return models.Transcript{}, err
		}
		raw = fetched
	}

	return models.Transcript{Text: textproc.Clean(transcriptText(raw)), Raw: raw}, nil
}

// wait polls the task until it reaches a terminal state and returns its output
func (d *DashScope) wait(ctx context.Context, taskID string) (map[string]interface{}, error) {
	for {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := d.call(ctx, ModeDashScopeURL, http.MethodGet, "/tasks/"+taskID, nil, nil)
		if err != nil {
			return nil, err
		}
		output, _ := resp["output"].(map[string]interface{})
		status, _ := output["task_status"].(string)

		switch status {
		case taskSucceeded:
			return output, nil
		case taskFailed, taskCanceled, taskUnknown:
			code, _ := output["code"].(string)
			msg, _ := output["message"].(string)
			if code == "" {
				code = "UNKNOWN"
			}
			if msg == "" {
				msg = "Task failed"
			}
			return nil, apperrors.ASRBackendError(string(ModeDashScopeURL), fmt.Sprintf("%s %s", code, msg), output)
		default:
			slog.Debug("transcription task pending", "task_id", taskID, "status", status)
		}
	}
}

// fetchResult downloads the transcription JSON referenced by a finished task
func (d *DashScope) fetchResult(ctx context.Context, resultURL string) (models.RawPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError("dashscope", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ASRBackendError(string(ModeDashScopeURL),
			fmt.Sprintf("result fetch returned status %d", resp.StatusCode), nil)
	}

	var raw models.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.ASRBackendError(string(ModeDashScopeURL), "malformed transcription result", nil).WithCause(err)
	}
	return raw, nil
}

// TranscribeAudio sends the audio file to a multimodal audio model. Small
// files are sent inline as a data URI; larger ones are uploaded to the
// temporary store first and referenced by their oss:// URL.
func (d *DashScope) TranscribeAudio(ctx context.Context, audioPath, model string) (models.Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return models.Transcript{}, apperrors.MissingInputError(string(ModeAudioASR), "local_audio_path").WithCause(err)
	}

	var audio string
	var headers map[string]string
	if info.Size() > d.maxInline {
		audio, err = d.uploadTemp(ctx, audioPath, model)
		if err != nil {
			return models.Transcript{}, err
		}
		headers = map[string]string{"X-DashScope-OssResourceResolve": "enable"}
	} else {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return models.Transcript{}, apperrors.MissingInputError(string(ModeAudioASR), "local_audio_path").WithCause(err)
		}
		audio = "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(data)
	}

	body := map[string]interface{}{
		"model": model,
		"input": map[string]interface{}{
			"messages": []interface{}{
				map[string]interface{}{
					"role": "user",
					"content": []interface{}{
						map[string]interface{}{"audio": audio},
					},
				},
			},
		},
	}

	resp, err := d.call(ctx, ModeAudioASR, http.MethodPost, "/services/aigc/multimodal-generation/generation", body, headers)
	if err != nil {
		return models.Transcript{}, err
	}

	output, _ := resp["output"].(map[string]interface{})
	if output == nil {
		output = map[string]interface{}{}
	}
	return models.Transcript{
		Text: textproc.Clean(multimodalText(output)),
		Raw:  models.RawPayload(output),
	}, nil
}

// uploadPolicy is the signed form returned by the uploads endpoint
type uploadPolicy struct {
	Policy              string `json:"policy"`
	Signature           string `json:"signature"`
	UploadDir           string `json:"upload_dir"`
	UploadHost          string `json:"upload_host"`
	OSSAccessKeyID      string `json:"oss_access_key_id"`
	XOSSObjectACL       string `json:"x_oss_object_acl"`
	XOSSForbidOverwrite string `json:"x_oss_forbid_overwrite"`
}

// uploadTemp puts audioPath in the temporary store for model and returns
// its oss:// URL. Uploaded files expire after 48 hours.
func (d *DashScope) uploadTemp(ctx context.Context, audioPath, model string) (string, error) {
	resp, err := d.call(ctx, ModeAudioASR, http.MethodGet,
		"/uploads?action=getPolicy&model="+url.QueryEscape(model), nil, nil)
	if err != nil {
		return "", err
	}

	var policy uploadPolicy
	if data, ok := resp["data"]; ok {
		buf, _ := json.Marshal(data)
		_ = json.Unmarshal(buf, &policy)
	}
	if policy.UploadHost == "" || policy.UploadDir == "" {
		return "", apperrors.ASRBackendError(string(ModeAudioASR), "upload policy missing upload_host", resp)
	}

	key := policy.UploadDir + "/" + filepath.Base(audioPath)

	f, err := os.Open(audioPath)
	if err != nil {
		return "", apperrors.MissingInputError(string(ModeAudioASR), "local_audio_path").WithCause(err)
	}
	defer f.Close()

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	for _, field := range [][2]string{
		{"OSSAccessKeyId", policy.OSSAccessKeyID},
		{"Signature", policy.Signature},
		{"policy", policy.Policy},
		{"x-oss-object-acl", policy.XOSSObjectACL},
		{"x-oss-forbid-overwrite", policy.XOSSForbidOverwrite},
		{"key", key},
		{"success_action_status", "200"},
	} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return "", err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", audioPath, err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, policy.UploadHost, &form)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	upload, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.ExternalServiceError("dashscope", err)
	}
	defer upload.Body.Close()
	_, _ = io.Copy(io.Discard, upload.Body)

	if upload.StatusCode != http.StatusOK {
		return "", apperrors.ASRBackendError(string(ModeAudioASR),
			fmt.Sprintf("temporary upload returned status %d", upload.StatusCode), nil)
	}
	slog.Debug("uploaded audio to temporary store", "key", key, "model", model)
	return "oss://" + key, nil
}

// call sends a JSON request to the API and decodes the JSON response. Any
// non-200 status becomes an ASRBackend error carrying the response body.
func (d *DashScope) call(ctx context.Context, backend Mode, method, path string, body interface{}, headers map[string]string) (map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.apiURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.ExternalServiceError("dashscope", err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		return nil, apperrors.ASRBackendError(string(backend),
			fmt.Sprintf("malformed response (status %d)", resp.StatusCode), nil).WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := payload["message"].(string)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, apperrors.ASRBackendError(string(backend), msg, payload).
			WithDetail("status", resp.StatusCode)
	}
	return payload, nil
}

// transcriptionURL returns results[0].transcription_url of a finished task
func transcriptionURL(output map[string]interface{}) string {
	results, _ := output["results"].([]interface{})
	if len(results) == 0 {
		return ""
	}
	first, _ := results[0].(map[string]interface{})
	u, _ := first["transcription_url"].(string)
	return u
}

// transcriptText reads transcripts[0].text, falling back to a flat text field
func transcriptText(raw models.RawPayload) string {
	if transcripts, ok := raw["transcripts"].([]interface{}); ok && len(transcripts) > 0 {
		if first, ok := transcripts[0].(map[string]interface{}); ok {
			s, _ := first["text"].(string)
			return s
		}
		return ""
	}
	return raw.Text()
}

// multimodalText joins the text parts of the first choice, or reads output.text
func multimodalText(output map[string]interface{}) string {
	if choices, ok := output["choices"].([]interface{}); ok && len(choices) > 0 {
		choice, _ := choices[0].(map[string]interface{})
		message, _ := choice["message"].(map[string]interface{})
		switch content := message["content"].(type) {
		case []interface{}:
			var texts []string
			for _, part := range content {
				if p, ok := part.(map[string]interface{}); ok {
					if s, _ := p["text"].(string); s != "" {
						texts = append(texts, s)
					}
				}
			}
			return strings.TrimSpace(strings.Join(texts, " "))
		case string:
			return strings.TrimSpace(content)
		}
	}
	if s, ok := output["text"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
