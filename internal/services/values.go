package services

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"catalog-sync-service/internal/models"
)

// ValueKind tags the shape of a decoded attribute value
type ValueKind string

const (
	ValueKindScalar ValueKind = "SCALAR"
	ValueKindID     ValueKind = "ID"
	ValueKindIDList ValueKind = "ID_LIST"
)

// TaggedValue is one decoded attribute value: a scalar for TEXT/NUMBER
// attributes, a dictionary value id for DICTIONARY, or an id list for
// DICTIONARY_COLLECTION.
type TaggedValue struct {
	Kind   ValueKind
	Scalar string
	ID     uuid.UUID
	IDs    []uuid.UUID
}

// IsEmpty reports whether the value carries nothing usable
func (v TaggedValue) IsEmpty() bool {
	switch v.Kind {
	case ValueKindScalar:
		return v.Scalar == ""
	case ValueKindID:
		return v.ID == uuid.Nil
	case ValueKindIDList:
		return len(v.IDs) == 0
	}
	return true
}

// ValueIDs returns the dictionary ids the value references
func (v TaggedValue) ValueIDs() []uuid.UUID {
	switch v.Kind {
	case ValueKindID:
		if v.ID == uuid.Nil {
			return nil
		}
		return []uuid.UUID{v.ID}
	case ValueKindIDList:
		return v.IDs
	}
	return nil
}

type valueDecoder func(raw interface{}) (TaggedValue, error)

// Per-type decoder table. Raw values come out of JSONB columns, so numbers
// arrive as float64 and id lists as []interface{}.
var valueDecoders = map[models.AttributeType]valueDecoder{
	models.AttributeTypeText:                 decodeScalar,
	models.AttributeTypeNumber:               decodeScalar,
	models.AttributeTypeDictionary:           decodeID,
	models.AttributeTypeDictionaryCollection: decodeIDList,
}

// DecodeTaggedValue decodes a raw JSONB attribute value according to the
// attribute's declared type
func DecodeTaggedValue(attrType models.AttributeType, raw interface{}) (TaggedValue, error) {
	decode, ok := valueDecoders[attrType]
	if !ok {
		return TaggedValue{}, fmt.Errorf("unknown attribute type %q", attrType)
	}
	if raw == nil {
		return TaggedValue{}, nil
	}
	return decode(raw)
}

func decodeScalar(raw interface{}) (TaggedValue, error) {
	switch v := raw.(type) {
	case string:
		return TaggedValue{Kind: ValueKindScalar, Scalar: v}, nil
	case float64:
		return TaggedValue{Kind: ValueKindScalar, Scalar: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return TaggedValue{Kind: ValueKindScalar, Scalar: strconv.Itoa(v)}, nil
	case bool:
		return TaggedValue{Kind: ValueKindScalar, Scalar: strconv.FormatBool(v)}, nil
	}
	return TaggedValue{}, fmt.Errorf("cannot decode %T as scalar", raw)
}

func decodeID(raw interface{}) (TaggedValue, error) {
	s, ok := raw.(string)
	if !ok {
		return TaggedValue{}, fmt.Errorf("cannot decode %T as dictionary id", raw)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return TaggedValue{}, fmt.Errorf("invalid dictionary id %q: %w", s, err)
	}
	return TaggedValue{Kind: ValueKindID, ID: id}, nil
}

func decodeIDList(raw interface{}) (TaggedValue, error) {
	list, ok := raw.([]interface{})
	if !ok {
		// A single id is accepted for collection attributes
		single, err := decodeID(raw)
		if err != nil {
			return TaggedValue{}, fmt.Errorf("cannot decode %T as dictionary id list", raw)
		}
		return TaggedValue{Kind: ValueKindIDList, IDs: []uuid.UUID{single.ID}}, nil
	}

	ids := make([]uuid.UUID, 0, len(list))
	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			return TaggedValue{}, fmt.Errorf("cannot decode %T inside dictionary id list", entry)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return TaggedValue{}, fmt.Errorf("invalid dictionary id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return TaggedValue{Kind: ValueKindIDList, IDs: ids}, nil
}

// EncodeTaggedValue renders a tagged value back into its JSONB shape
func EncodeTaggedValue(v TaggedValue) interface{} {
	switch v.Kind {
	case ValueKindScalar:
		return v.Scalar
	case ValueKindID:
		return v.ID.String()
	case ValueKindIDList:
		out := make([]interface{}, len(v.IDs))
		for i, id := range v.IDs {
			out[i] = id.String()
		}
		return out
	}
	return nil
}
