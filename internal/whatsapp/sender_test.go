package whatsapp

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/config"
)

type fakeCreator struct {
	params []*openapi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestSender_Send(t *testing.T) {
	api := &fakeCreator{}
	s := newSender(api, "+14155238886", true, zap.NewNop())

	require.NoError(t, s.Send(context.Background(), "+41790000000", "Ada Lovelace", "FL123", 2))

	require.Len(t, api.params, 1)
	p := api.params[0]
	assert.Equal(t, "whatsapp:+41790000000", *p.To)
	assert.Equal(t, "whatsapp:+14155238886", *p.From)
	assert.Equal(t, "Hello Ada Lovelace, your booking for flight FL123 with 2 ticket(s) has been confirmed.", *p.Body)
}

func TestSender_Disabled(t *testing.T) {
	api := &fakeCreator{}
	s := newSender(api, "+1", false, zap.NewNop())

	require.NoError(t, s.Send(context.Background(), "+41790000000", "Ada", "FL123", 1))
	assert.Empty(t, api.params)
}

func TestSender_Error(t *testing.T) {
	s := newSender(&fakeCreator{err: errors.New("21211 invalid number")}, "+1", true, zap.NewNop())

	err := s.Send(context.Background(), "bad", "Ada", "FL123", 1)

	assert.ErrorContains(t, err, "21211 invalid number")
}

func TestAddress_KeepsPrefix(t *testing.T) {
	assert.Equal(t, "whatsapp:+1", address("whatsapp:+1"))
	assert.Equal(t, "whatsapp:+1", address("+1"))
}

func TestNewSender_RequiresCredentialsWhenEnabled(t *testing.T) {
	_, err := NewSender(config.TwilioConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)

	s, err := NewSender(config.TwilioConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}
