package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lending-edge/services"
	"github.com/upb/lending-edge/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "unauthorized hides the cause",
			err:             services.WrapError(services.ErrorTypeUnauthorized, "invalid signature", errors.New("signature mismatch")),
			expectedStatus:  http.StatusUnauthorized,
			expectedError:   "unauthorized",
			expectedMessage: "invalid signature",
		},
		{
			name:            "malformed payload",
			err:             services.ErrMalformedPayload,
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "malformed_payload",
			expectedMessage: "malformed webhook payload",
		},
		{
			name:           "validation error",
			err:            services.WrapError(services.ErrorTypeValidation, "bad input", nil),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "bad_request",
		},
		{
			name:           "payload too large",
			err:            services.ErrPayloadTooLarge,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedError:  "payload_too_large",
		},
		{
			name:           "downstream error",
			err:            services.WrapDownstream("backend unavailable", errors.New("dial tcp")),
			expectedStatus: http.StatusBadGateway,
			expectedError:  "bad_gateway",
		},
		{
			name:            "configuration error is internal",
			err:             services.ErrMissingWebhookKey,
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An internal error occurred",
		},
		{
			name:            "unknown error",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, response.Message)
			}
		})
	}
}

func TestHandleServiceError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
