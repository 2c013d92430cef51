package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahara/rescue-backend/internal/models"
)

func otpOrder() *models.Order {
	pickup := "111111"
	return &models.Order{
		ID:          uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		PickupOtp:   &pickup,
		HandoverOtp: "222222",
		Status:      models.OrderStatusAwaitingVolunteer,
	}
}

func TestNewOrderResponse_OtpVisibility(t *testing.T) {
	order := otpOrder()

	t.Run("продавец видит только pickup_otp", func(t *testing.T) {
		raw, err := json.Marshal(NewOrderResponse(order, order.SellerID))
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "111111", decoded["pickup_otp"])
		assert.NotContains(t, decoded, "handover_otp")
	})

	t.Run("покупатель видит только handover_otp", func(t *testing.T) {
		raw, err := json.Marshal(NewOrderResponse(order, order.BuyerID))
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "222222", decoded["handover_otp"])
		assert.NotContains(t, decoded, "pickup_otp")
	})

	t.Run("посторонний не видит кодов", func(t *testing.T) {
		raw, err := json.Marshal(NewOrderResponse(order, uuid.New()))
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.NotContains(t, decoded, "pickup_otp")
		assert.NotContains(t, decoded, "handover_otp")
	})
}
