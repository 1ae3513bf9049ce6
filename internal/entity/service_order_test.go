package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, s)

	s, err = ParseOrderStatus("WAITING_PARTS")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingParts, s)

	_, err = ParseOrderStatus("waiting_parts")
	assert.Error(t, err)
	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestOrderStatus_Transitions(t *testing.T) {
	legal := [][2]OrderStatus{
		{StatusOpen, StatusQuotation},
		{StatusOpen, StatusInProgress},
		{StatusQuotation, StatusApproved},
		{StatusQuotation, StatusOpen},
		{StatusApproved, StatusWaitingParts},
		{StatusInProgress, StatusFinished},
		{StatusWaitingParts, StatusInProgress},
		{StatusWaitingParts, StatusCancelled},
	}
	for _, pair := range legal {
		assert.True(t, pair[0].CanTransitionTo(pair[1]), "%s -> %s", pair[0], pair[1])
	}

	illegal := [][2]OrderStatus{
		{StatusFinished, StatusOpen},
		{StatusCancelled, StatusOpen},
		{StatusOpen, StatusFinished},
		{StatusWaitingParts, StatusFinished},
		{StatusApproved, StatusQuotation},
		{StatusOpen, StatusOpen},
	}
	for _, pair := range illegal {
		assert.False(t, pair[0].CanTransitionTo(pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestOrderStatus_TerminalAndActive(t *testing.T) {
	assert.True(t, StatusFinished.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusOpen.Terminal())
	assert.False(t, OrderStatus("BOGUS").Terminal())

	for _, s := range ActiveStatuses {
		assert.True(t, s.Active())
		assert.False(t, s.Terminal())
	}
	assert.False(t, StatusFinished.Active())
}
