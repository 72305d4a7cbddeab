package badgerstore

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"learnboard/infrastructure/persistence/table"
)

const (
	itemPrefix = "i\x00"
	keySep     = "\x00"
)

// encodeKey lays items out as i\x00PK\x00SK so that one partition is a
// contiguous, SK-ordered key range.
func encodeKey(k table.Key) []byte {
	return []byte(itemPrefix + k.PK + keySep + k.SK)
}

func partitionPrefix(pk, skPrefix string) []byte {
	return []byte(itemPrefix + pk + keySep + skPrefix)
}

// storedValue is a gob-friendly mirror of types.AttributeValue.
type storedValue struct {
	T string
	V any
}

func init() {
	gob.Register(map[string]storedValue{})
	gob.Register([]storedValue{})
	gob.Register([][]byte{})
}

func marshalItem(item table.Item) ([]byte, error) {
	out := make(map[string]storedValue, len(item))
	for name, av := range item {
		sv, err := toStored(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[name] = sv
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(out); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalItem(data []byte) (table.Item, error) {
	var in map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}

	item := make(table.Item, len(in))
	for name, sv := range in {
		av, err := fromStored(sv)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		item[name] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{T: "S", V: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{T: "N", V: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{T: "B", V: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{T: "BOOL", V: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{T: "NULL", V: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{T: "SS", V: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedValue{T: "NS", V: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedValue{T: "BS", V: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedValue, len(v.Value))
		for k, inner := range v.Value {
			sv, err := toStored(inner)
			if err != nil {
				return storedValue{}, err
			}
			m[k] = sv
		}
		return storedValue{T: "M", V: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, inner := range v.Value {
			sv, err := toStored(inner)
			if err != nil {
				return storedValue{}, err
			}
			l[i] = sv
		}
		return storedValue{T: "L", V: l}, nil
	}
	return storedValue{}, fmt.Errorf("unsupported attribute value %T", av)
}

func fromStored(sv storedValue) (types.AttributeValue, error) {
	switch sv.T {
	case "S":
		return &types.AttributeValueMemberS{Value: sv.V.(string)}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: sv.V.(string)}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: sv.V.([]byte)}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: sv.V.(bool)}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: sv.V.(bool)}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: sv.V.([]string)}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: sv.V.([]string)}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: sv.V.([][]byte)}, nil
	case "M":
		in := sv.V.(map[string]storedValue)
		m := make(map[string]types.AttributeValue, len(in))
		for k, inner := range in {
			av, err := fromStored(inner)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		in := sv.V.([]storedValue)
		l := make([]types.AttributeValue, len(in))
		for i, inner := range in {
			av, err := fromStored(inner)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, fmt.Errorf("unsupported stored type %q", sv.T)
}
