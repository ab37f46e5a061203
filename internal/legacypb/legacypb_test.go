package legacypb

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestRequestRoundTrip(t *testing.T) {
	in := LegacyDataRequest{RecordID: "rec-42", TableName: "users"}
	raw := in.Marshal()

	var out LegacyDataRequest
	if err := out.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestRequestEmptyFieldsOmitted(t *testing.T) {
	var in LegacyDataRequest
	if raw := in.Marshal(); len(raw) != 0 {
		t.Errorf("empty request encoded to %d bytes, want 0", len(raw))
	}
}

func TestResponseRoundTrip(t *testing.T) {
	in := LegacyDataResponse{
		Status: &ResponseStatus{Success: true, Message: "Data fetched successfully"},
		Record: &LegacyRecord{
			ID:        "rec-42",
			RawData:   []byte(`{"source": "users", "data": "legacy_value_rec-42"}`),
			CreatedAt: 1700000000,
			UpdatedAt: 1700086400,
			Fields: map[string]string{
				"source":     "users",
				"fetched_by": "service-f",
			},
		},
	}
	raw := in.Marshal()

	var out LegacyDataResponse
	if err := out.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Status == nil || out.Status.Success != true || out.Status.Message != in.Status.Message {
		t.Errorf("status mismatch: %+v", out.Status)
	}
	if out.Record == nil {
		t.Fatal("record missing")
	}
	if out.Record.ID != in.Record.ID {
		t.Errorf("id = %q, want %q", out.Record.ID, in.Record.ID)
	}
	if !bytes.Equal(out.Record.RawData, in.Record.RawData) {
		t.Errorf("raw_data = %q, want %q", out.Record.RawData, in.Record.RawData)
	}
	if out.Record.CreatedAt != in.Record.CreatedAt || out.Record.UpdatedAt != in.Record.UpdatedAt {
		t.Errorf("timestamps = %d/%d, want %d/%d",
			out.Record.CreatedAt, out.Record.UpdatedAt, in.Record.CreatedAt, in.Record.UpdatedAt)
	}
	if len(out.Record.Fields) != 2 || out.Record.Fields["source"] != "users" || out.Record.Fields["fetched_by"] != "service-f" {
		t.Errorf("fields = %v", out.Record.Fields)
	}
}

func TestRecordMarshalDeterministic(t *testing.T) {
	rec := LegacyRecord{
		ID:     "a",
		Fields: map[string]string{"z": "1", "a": "2", "m": "3"},
	}
	first := rec.Marshal()
	for i := 0; i < 10; i++ {
		if next := rec.Marshal(); !bytes.Equal(first, next) {
			t.Fatal("map entry order not deterministic")
		}
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	var raw []byte
	raw = protowire.AppendTag(raw, 1, protowire.BytesType)
	raw = protowire.AppendString(raw, "rec-1")
	// Unknown varint field 99 and fixed64 field 100 interleaved.
	raw = protowire.AppendTag(raw, 99, protowire.VarintType)
	raw = protowire.AppendVarint(raw, 12345)
	raw = protowire.AppendTag(raw, 100, protowire.Fixed64Type)
	raw = protowire.AppendFixed64(raw, 777)
	raw = protowire.AppendTag(raw, 2, protowire.BytesType)
	raw = protowire.AppendString(raw, "orders")

	var req LegacyDataRequest
	if err := req.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if req.RecordID != "rec-1" || req.TableName != "orders" {
		t.Errorf("got %+v", req)
	}
}

func TestUnmarshalTruncatedInput(t *testing.T) {
	full := (&LegacyDataRequest{RecordID: "rec-1", TableName: "orders"}).Marshal()
	truncated := full[:len(full)-3]

	var req LegacyDataRequest
	if err := req.Unmarshal(truncated); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestUnmarshalGarbageInput(t *testing.T) {
	var req LegacyDataRequest
	if err := req.Unmarshal([]byte{0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for garbage input")
	}
}
