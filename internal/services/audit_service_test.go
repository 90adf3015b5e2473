package services

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditService_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewAuditService(WithLogger(zap.New(core).Sugar()), testClock())

	svc.Log("user-1", "TRANSFER_FUNDS", "transfer", "tx-1", "127.0.0.1", map[string]any{"amount": int64(500)})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["action"] != "TRANSFER_FUNDS" || fields["user_id"] != "user-1" || fields["resource_id"] != "tx-1" {
		t.Errorf("unexpected audit fields: %v", fields)
	}
}
