package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	raw, err := json.Marshal(Success([]int{1}, map[string]any{"count": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1],"meta":{"count":1}}`, string(raw))

	raw, err = json.Marshal(Unprocessable("not stool"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":422,"message":"not stool"}}`, string(raw))

	assert.Equal(t, 502, BadGateway("x").Error.Code)
	assert.Equal(t, 503, ServiceUnavailable("x").Error.Code)
	assert.Equal(t, 401, Unauthorized("x").Error.Code)
}
