package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryIsVersioned(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventRegisterOpened, 1, JSON[payloads.RegisterOpenedEvent]())

	output, err := reg.Decode(enums.EventRegisterOpened, 1, json.RawMessage(`{"register_id":"till-01","opening_balance":"100.00"}`))
	require.NoError(t, err)
	opened, ok := output.(*payloads.RegisterOpenedEvent)
	require.True(t, ok)
	assert.Equal(t, "till-01", opened.RegisterID)
	assert.Equal(t, "100", opened.OpeningBalance.String())

	_, err = reg.Decode(enums.EventRegisterOpened, 2, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "v2")
}

func TestJSONDecoderRejectsUnknownFields(t *testing.T) {
	decode := JSON[payloads.RegisterOpenedEvent]()
	_, err := decode(json.RawMessage(`{"register_id":"till-01","drawer_color":"red"}`))
	assert.Error(t, err)
}
