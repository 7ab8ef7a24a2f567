package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncEntityUnmarshal_SplitsPayloadFromCoreFields(t *testing.T) {
	raw := []byte(`{"id":"d1","title":"X","currentPage":7,"syncVersion":3}`)

	var e SyncEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.ID != "d1" {
		t.Errorf("expected id d1, got %q", e.ID)
	}
	if e.SyncVersion != 3 {
		t.Errorf("expected syncVersion 3, got %d", e.SyncVersion)
	}
	if e.DeletedAt != nil {
		t.Errorf("expected nil DeletedAt, got %v", e.DeletedAt)
	}
	if len(e.Payload) != 2 {
		t.Fatalf("expected 2 payload fields, got %d", len(e.Payload))
	}
	if string(e.Payload["title"]) != `"X"` {
		t.Errorf("title payload not passed through verbatim: %s", e.Payload["title"])
	}
	if _, ok := e.Payload["syncVersion"]; ok {
		t.Error("syncVersion leaked into payload")
	}
}

func TestSyncEntityMarshal_FlattensPayload(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	e := SyncEntity{
		ID:          "e1",
		DeletedAt:   &now,
		SyncVersion: 9,
		Payload: map[string]json.RawMessage{
			"content": json.RawMessage(`"highlighted text"`),
		},
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	for _, key := range []string{"id", "deletedAt", "syncVersion", "content"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("expected top-level key %q", key)
		}
	}
}

func TestSyncEntityMarshal_OmitsUnassignedVersionAndDelete(t *testing.T) {
	e := SyncEntity{ID: "d2", Payload: map[string]json.RawMessage{"title": json.RawMessage(`"Y"`)}}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if _, ok := flat["syncVersion"]; ok {
		t.Error("unassigned syncVersion must not be serialized")
	}
	if _, ok := flat["deletedAt"]; ok {
		t.Error("nil deletedAt must not be serialized")
	}
}

func TestContentHash_StableAcrossFieldOrder(t *testing.T) {
	var a, b SyncEntity
	if err := json.Unmarshal([]byte(`{"id":"x","title":"T","content":"C"}`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"content":"C","title":"T","id":"x"}`), &b); err != nil {
		t.Fatal(err)
	}

	if a.ContentHash() == "" || a.ContentHash() != b.ContentHash() {
		t.Errorf("expected equal non-empty hashes, got %q vs %q", a.ContentHash(), b.ContentHash())
	}
}
