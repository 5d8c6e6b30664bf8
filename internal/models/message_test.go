package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOrdering(t *testing.T) {
	assert.True(t, StatusSent.Before(StatusDelivered))
	assert.True(t, StatusSent.Before(StatusRead))
	assert.True(t, StatusDelivered.Before(StatusRead))

	assert.False(t, StatusRead.Before(StatusDelivered))
	assert.False(t, StatusRead.Before(StatusRead))
}

func TestUnknownStatusRanksLowest(t *testing.T) {
	assert.Equal(t, -1, Status("bogus").Rank())
	assert.True(t, Status("bogus").Before(StatusSent))
}
