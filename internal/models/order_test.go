package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPlaced, InitialOrderStatus(FulfillmentSelfPickup))
	assert.Equal(t, OrderStatusAwaitingVolunteer, InitialOrderStatus(FulfillmentVolunteerDelivery))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalStatus(OrderStatusCancelled))
	assert.True(t, IsTerminalStatus(OrderStatusFailed))

	assert.False(t, IsTerminalStatus(OrderStatusPlaced))
	assert.False(t, IsTerminalStatus(OrderStatusAwaitingVolunteer))
	assert.False(t, IsTerminalStatus(OrderStatusVolunteerAssigned))
	assert.False(t, IsTerminalStatus(OrderStatusPickedUp))
	assert.False(t, IsTerminalStatus(OrderStatusInTransit))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"самовывоз передан покупателю", OrderStatusPlaced, OrderStatusDelivered, true},
		{"самовывоз забран волонтёром", OrderStatusPlaced, OrderStatusPickedUp, true},
		{"назначение волонтёра", OrderStatusAwaitingVolunteer, OrderStatusVolunteerAssigned, true},
		{"резервный переход на самовывоз", OrderStatusAwaitingVolunteer, OrderStatusPlaced, true},
		{"волонтёр забрал еду", OrderStatusVolunteerAssigned, OrderStatusPickedUp, true},
		{"волонтёр в пути", OrderStatusPickedUp, OrderStatusInTransit, true},
		{"доставка завершена", OrderStatusInTransit, OrderStatusDelivered, true},
		{"доставка без транзита", OrderStatusPickedUp, OrderStatusDelivered, true},
		{"отмена до назначения", OrderStatusAwaitingVolunteer, OrderStatusCancelled, true},
		{"отмена в пути", OrderStatusInTransit, OrderStatusCancelled, true},

		{"нельзя назначить волонтёра из placed", OrderStatusPlaced, OrderStatusVolunteerAssigned, false},
		{"нельзя перескочить в транзит", OrderStatusAwaitingVolunteer, OrderStatusInTransit, false},
		{"нельзя вернуться из picked_up", OrderStatusPickedUp, OrderStatusPlaced, false},
		{"доставленный заказ неизменяем", OrderStatusDelivered, OrderStatusCancelled, false},
		{"отменённый заказ неизменяем", OrderStatusCancelled, OrderStatusPlaced, false},
		{"failed неизменяем", OrderStatusFailed, OrderStatusPlaced, false},
		{"неизвестный статус", "unknown", OrderStatusPlaced, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestExpectedOtp(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		fulfillment string
		wantKind    string
		wantNext    string
		wantOk      bool
	}{
		{"самовывоз: код покупателя завершает заказ", OrderStatusPlaced, FulfillmentSelfPickup, OtpKindHandover, OrderStatusDelivered, true},
		{"доставка из placed: код продавца", OrderStatusPlaced, FulfillmentVolunteerDelivery, OtpKindPickup, OrderStatusPickedUp, true},
		{"ожидание волонтёра: код продавца", OrderStatusAwaitingVolunteer, FulfillmentVolunteerDelivery, OtpKindPickup, OrderStatusPickedUp, true},
		{"волонтёр назначен: код продавца", OrderStatusVolunteerAssigned, FulfillmentVolunteerDelivery, OtpKindPickup, OrderStatusPickedUp, true},
		{"еда забрана: код покупателя", OrderStatusPickedUp, FulfillmentVolunteerDelivery, OtpKindHandover, OrderStatusDelivered, true},
		{"в пути: код покупателя", OrderStatusInTransit, FulfillmentVolunteerDelivery, OtpKindHandover, OrderStatusDelivered, true},

		{"доставленный заказ кодов не принимает", OrderStatusDelivered, FulfillmentVolunteerDelivery, "", "", false},
		{"отменённый заказ кодов не принимает", OrderStatusCancelled, FulfillmentSelfPickup, "", "", false},
		{"failed кодов не принимает", OrderStatusFailed, FulfillmentSelfPickup, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, next, ok := ExpectedOtp(tt.status, tt.fulfillment)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}
