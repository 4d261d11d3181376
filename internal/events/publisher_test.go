package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithoutBrokersIsNop(t *testing.T) {
	p := New(nil, "investment_recorded")
	_, ok := p.(NopPublisher)
	require.True(t, ok)
	assert.NoError(t, p.PublishInvestmentRecorded(context.Background(), InvestmentRecorded{EntryID: 1}))
	assert.NoError(t, p.Close())
}

func TestNew_WithBrokersIsKafka(t *testing.T) {
	p := New([]string{"localhost:9092"}, "investment_recorded")
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "investment_recorded", kp.writer.Topic)
	assert.NoError(t, kp.Close())
}

func TestInvestmentRecorded_WireFormat(t *testing.T) {
	data, err := json.Marshal(InvestmentRecorded{
		EntryID:    7,
		UserID:     3,
		Type:       "Buy",
		Amount:     "50",
		Date:       "2024-01-01",
		Balance:    "50",
		RecordedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "50", fields["amount"])
	assert.Equal(t, float64(3), fields["user_id"])
	assert.NotContains(t, fields, "asset")
}
