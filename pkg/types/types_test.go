package types

import (
	"encoding/json"
	"testing"
)

func TestNullableUUIDUnmarshal(t *testing.T) {
	type payload struct {
		ID NullableUUID `json:"id"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"id": "00000000-0000-0000-0000-000000000001"}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.ID.Valid || got.ID.Value == nil {
		t.Fatalf("expected valid uuid, got %v", got.ID)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"id": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.ID.Valid || got.ID.Value != nil {
		t.Fatalf("expected null to be valid but nil, got %v", got.ID)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.ID.Valid {
		t.Fatalf("expected invalid flag for missing field, got %+v", got.ID)
	}
}

func TestNullableIntUnmarshal(t *testing.T) {
	type payload struct {
		Threshold NullableInt `json:"reorder_threshold"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"reorder_threshold": 5}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.Threshold.Valid || got.Threshold.Value == nil || *got.Threshold.Value != 5 {
		t.Fatalf("expected threshold 5, got %+v", got.Threshold)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"reorder_threshold": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.Threshold.Valid || got.Threshold.Value != nil {
		t.Fatalf("expected explicit null, got %+v", got.Threshold)
	}

	if err := json.Unmarshal([]byte(`{"reorder_threshold": "x"}`), &got); err == nil {
		t.Fatalf("expected error for non-numeric threshold")
	}
}

func TestGeoPointScanAndValid(t *testing.T) {
	var point GeoPoint
	if err := point.Scan([]byte(`{"latitude": 6.5244, "longitude": 3.3792}`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if point.Latitude != 6.5244 || point.Longitude != 3.3792 {
		t.Fatalf("unexpected point %+v", point)
	}
	if !point.Valid() {
		t.Fatalf("expected point to be valid")
	}
	if (GeoPoint{Latitude: 91}).Valid() {
		t.Fatalf("latitude 91 must be invalid")
	}
	if (GeoPoint{Longitude: -180.5}).Valid() {
		t.Fatalf("longitude -180.5 must be invalid")
	}
	if err := point.Scan(42); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

func TestJSONMapRoundTrip(t *testing.T) {
	var empty JSONMap
	v, err := empty.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "{}" {
		t.Fatalf("expected empty object, got %v", v)
	}

	var m JSONMap
	if err := m.Scan(`{"color":"red","size":2}`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if m["color"] != "red" {
		t.Fatalf("unexpected map %v", m)
	}
}
