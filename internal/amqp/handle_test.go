package amqp

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	body, _ := NewRecordSyncMessage(7, 1).ToJSON()
	failing := func(context.Context, *RecordSyncMessage) error { return errors.New("sheet unavailable") }

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handler     Handler
		wantAck     bool
		wantRequeue bool
	}{
		{
			name:    "success acks",
			body:    body,
			handler: func(_ context.Context, m *RecordSyncMessage) error { return nil },
			wantAck: true,
		},
		{
			name:        "first failure requeues",
			body:        body,
			handler:     failing,
			wantRequeue: true,
		},
		{
			name:        "redelivered failure drops",
			body:        body,
			redelivered: true,
			handler:     failing,
		},
		{
			name:    "malformed body drops",
			body:    []byte(`{"id":"x"}`),
			handler: failing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: tt.body, Redelivered: tt.redelivered}
			(&Client{}).handle(context.Background(), d, tt.handler)

			if ack.acked != tt.wantAck {
				t.Fatalf("acked = %v want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && (!ack.nacked || ack.requeue != tt.wantRequeue) {
				t.Fatalf("nacked = %v requeue = %v, want requeue %v", ack.nacked, ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestHandlerSeesMessage(t *testing.T) {
	body, _ := NewRecordSyncMessage(42, 3).ToJSON()
	var got *RecordSyncMessage
	d := amqp091.Delivery{Acknowledger: &fakeAck{}, Body: body}
	(&Client{}).handle(context.Background(), d, func(_ context.Context, m *RecordSyncMessage) error {
		got = m
		return nil
	})
	if got == nil || got.ID != 42 || got.Version != 3 {
		t.Fatalf("handler got %+v", got)
	}
}
