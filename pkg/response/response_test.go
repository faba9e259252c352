package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func TestJSONWritesEnvelopeAndMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON(c, http.StatusOK, map[string]string{"id": "T001"}, map[string]interface{}{"cache_hit": true})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "T001", body["data"].(map[string]interface{})["id"])
	require.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])
}

func TestErrorUsesStatusFromAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrSessionExpired, "session expired"))
	require.Equal(t, http.StatusGone, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error(c, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
