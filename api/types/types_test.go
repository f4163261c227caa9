package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", apperrors.NotFound("job", "x"), http.StatusNotFound, "not_found", ""},
		{"validation", apperrors.ValidationError("exports", "bad"), http.StatusBadRequest, "validation", ""},
		{"plain error hides message", errors.New("secret path"), http.StatusInternalServerError, "internal", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			SendError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.wantCode, resp.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestNewJobResponse(t *testing.T) {
	job := &models.Job{
		PublicID:        "abc",
		Status:          models.JobStatusRunning,
		Payload:         models.JobPayload{Name: "客户A"},
		ProgressStep:    "asr",
		ProgressCurrent: 1,
		ProgressTotal:   3,
		ProgressMessage: "语音识别",
	}

	resp := NewJobResponse(job)
	assert.Equal(t, "abc", resp.JobID)
	assert.Equal(t, models.JobStatusRunning, resp.JobStatus)
	assert.Equal(t, "客户A", resp.Name)
	assert.Equal(t, models.Progress{Step: "asr", Current: 1, Total: 3, Message: "语音识别"}, resp.Progress)
}
