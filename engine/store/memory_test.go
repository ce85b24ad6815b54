package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/facultyops/attendance-engine/engine"
	"github.com/facultyops/attendance-engine/engine/store"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	if err := m.Set(ctx, "faculty/1", json.RawMessage(`{"empId":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, ok, err := m.Get(ctx, "faculty/1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(raw) != `{"empId":1}` {
		t.Errorf("unexpected value: %s", raw)
	}

	_, ok, err = m.Get(ctx, "faculty/2")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if ok {
		t.Error("expected absent path")
	}
}

func TestMemory_ListPrefix(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	m.Set(ctx, "attendance/1/records/2025-01-01", json.RawMessage(`{}`))
	m.Set(ctx, "attendance/1/records/2025-01-02", json.RawMessage(`{}`))
	m.Set(ctx, "attendance/2/records/2025-01-01", json.RawMessage(`{}`))

	got, err := m.List(ctx, "attendance/1/records/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestMemory_Update_NilDeletes(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	m.Set(ctx, "leaveApplications/l1", json.RawMessage(`{"status":"pending"}`))
	m.Set(ctx, "attendance/1/records/2025-01-01", json.RawMessage(`{}`))

	err := m.Update(ctx, map[string]json.RawMessage{
		"leaveApplications/l1":            json.RawMessage(`{"status":"rejected"}`),
		"attendance/1/records/2025-01-01": nil,
		"attendance/1/records/2025-01-02": nil, // deleting absent path is a no-op
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, _, _ := m.Get(ctx, "leaveApplications/l1")
	if string(raw) != `{"status":"rejected"}` {
		t.Errorf("status not updated: %s", raw)
	}
	if _, ok, _ := m.Get(ctx, "attendance/1/records/2025-01-01"); ok {
		t.Error("expected record deleted")
	}
}

func TestMemory_UpdateIfAbsent_GuardHolds(t *testing.T) {
	// GIVEN: An occupied guard path
	// WHEN: A guarded update races in behind it
	// THEN: Nothing is written and the duplicate is surfaced
	ctx := context.Background()
	m := store.NewMemory()

	guard := "monthlyAllocations/2025-01"
	first := map[string]json.RawMessage{
		guard:       json.RawMessage(`{"completed":true}`),
		"faculty/1": json.RawMessage(`{"casualLeaves":3}`),
	}
	if err := m.UpdateIfAbsent(ctx, guard, first); err != nil {
		t.Fatalf("first guarded update: %v", err)
	}

	second := map[string]json.RawMessage{
		guard:       json.RawMessage(`{"completed":true}`),
		"faculty/1": json.RawMessage(`{"casualLeaves":4}`),
	}
	err := m.UpdateIfAbsent(ctx, guard, second)
	if !errors.Is(err, engine.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	raw, _, _ := m.Get(ctx, "faculty/1")
	if string(raw) != `{"casualLeaves":3}` {
		t.Errorf("losing writer must not apply: %s", raw)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	m.Set(ctx, "settings", json.RawMessage(`{"permissionLimit":2}`))
	raw, _, _ := m.Get(ctx, "settings")
	raw[0] = 'X' // mutating the returned slice must not corrupt the store

	again, _, _ := m.Get(ctx, "settings")
	if string(again) != `{"permissionLimit":2}` {
		t.Errorf("store value corrupted: %s", again)
	}
}
