// Package legacypb implements the wire encoding of the grpcarch.ServiceF
// messages directly with protowire, keeping the repo free of generated
// protobuf stubs for its business surface:
//
//	message LegacyDataRequest  { string record_id = 1; string table_name = 2; }
//	message ResponseStatus     { bool success = 1; string message = 2; }
//	message LegacyRecord       { string id = 1; bytes raw_data = 2;
//	                             int64 created_at = 3; int64 updated_at = 4;
//	                             map<string,string> fields = 5; }
//	message LegacyDataResponse { ResponseStatus status = 1; LegacyRecord record = 2; }
//
// Unknown fields are skipped on decode; truncated input is an error.
package legacypb

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// LegacyDataRequest asks for one record from a named legacy table.
type LegacyDataRequest struct {
	RecordID  string
	TableName string
}

// Marshal encodes the request in protobuf wire format.
func (m *LegacyDataRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.RecordID)
	b = appendString(b, 2, m.TableName)
	return b
}

// Unmarshal decodes the request from protobuf wire format.
func (m *LegacyDataRequest) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case 1:
			m.RecordID = string(value)
		case 2:
			m.TableName = string(value)
		}
		return nil
	})
}

// ResponseStatus reports whether the lookup succeeded.
type ResponseStatus struct {
	Success bool
	Message string
}

// Marshal encodes the status in protobuf wire format.
func (m *ResponseStatus) Marshal() []byte {
	var b []byte
	if m.Success {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	b = appendString(b, 2, m.Message)
	return b
}

// Unmarshal decodes the status from protobuf wire format.
func (m *ResponseStatus) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case 1:
			m.Success = len(value) > 0 && value[0] != 0
		case 2:
			m.Message = string(value)
		}
		return nil
	})
}

// LegacyRecord is one row fetched from a legacy table.
type LegacyRecord struct {
	ID        string
	RawData   []byte
	CreatedAt int64
	UpdatedAt int64
	Fields    map[string]string
}

// Marshal encodes the record in protobuf wire format. Map entries are
// emitted in sorted key order so the encoding is deterministic.
func (m *LegacyRecord) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.ID)
	if len(m.RawData) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, m.RawData)
	}
	if m.CreatedAt != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.CreatedAt))
	}
	if m.UpdatedAt != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.UpdatedAt))
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, m.Fields[k])
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// Unmarshal decodes the record from protobuf wire format.
func (m *LegacyRecord) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case 1:
			m.ID = string(value)
		case 2:
			m.RawData = append([]byte(nil), value...)
		case 3:
			m.CreatedAt = int64(decodeVarint(value))
		case 4:
			m.UpdatedAt = int64(decodeVarint(value))
		case 5:
			key, val, err := unmarshalMapEntry(value)
			if err != nil {
				return err
			}
			if m.Fields == nil {
				m.Fields = make(map[string]string)
			}
			m.Fields[key] = val
		}
		return nil
	})
}

func unmarshalMapEntry(data []byte) (key, value string, err error) {
	err = walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			key = string(v)
		case 2:
			value = string(v)
		}
		return nil
	})
	return key, value, err
}

// LegacyDataResponse is the reply to a LegacyDataRequest.
type LegacyDataResponse struct {
	Status *ResponseStatus
	Record *LegacyRecord
}

// Marshal encodes the response in protobuf wire format.
func (m *LegacyDataResponse) Marshal() []byte {
	var b []byte
	if m.Status != nil {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Status.Marshal())
	}
	if m.Record != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Record.Marshal())
	}
	return b
}

// Unmarshal decodes the response from protobuf wire format.
func (m *LegacyDataResponse) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case 1:
			m.Status = &ResponseStatus{}
			return m.Status.Unmarshal(value)
		case 2:
			m.Record = &LegacyRecord{}
			return m.Record.Unmarshal(value)
		}
		return nil
	})
}

// walkFields iterates the top-level fields of a wire-format message, handing
// each known-shape payload to fn: bytes fields receive the unwrapped bytes,
// varint fields receive the raw varint encoding. Unknown field types are
// skipped wholesale.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.BytesType:
			value, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("field %d: malformed bytes: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, value); err != nil {
				return err
			}
			data = data[n:]
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("field %d: malformed varint: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, data[:n]); err != nil {
				return err
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("field %d: malformed value: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

func decodeVarint(raw []byte) uint64 {
	v, _ := protowire.ConsumeVarint(raw)
	return v
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
