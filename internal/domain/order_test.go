package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusSettled(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		settled   bool
		cancelled bool
	}{
		{OrderPending, false, false},
		{OrderPaid, true, false},
		{OrderShipped, true, false},
		{OrderDelivered, true, false},
		{OrderCancelled, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.settled, tt.status.Settled())
			assert.Equal(t, tt.cancelled, tt.status.Cancelled())
		})
	}
}
