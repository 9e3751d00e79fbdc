package engine

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// resolveArg rewrites parsed literal values into driver-ready BSON:
// {$oid: "..."} becomes an ObjectID, nested documents and arrays are walked.
// Key order is preserved, RunCommand requires the command name first.
func resolveArg(v any) any {
	switch val := v.(type) {
	case bson.D:
		if oid, ok := objectIDFromDoc(val); ok {
			return oid
		}
		out := make(bson.D, 0, len(val))
		for _, elem := range val {
			out = append(out, bson.E{Key: elem.Key, Value: resolveArg(elem.Value)})
		}
		return out
	case bson.A:
		arr := make(bson.A, len(val))
		for i, item := range val {
			arr[i] = resolveArg(item)
		}
		return arr
	default:
		return v
	}
}

func objectIDFromDoc(d bson.D) (bson.ObjectID, bool) {
	if len(d) != 1 || d[0].Key != "$oid" {
		return bson.ObjectID{}, false
	}
	s, ok := d[0].Value.(string)
	if !ok {
		return bson.ObjectID{}, false
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return oid, true
}

// plainValue converts driver results into JSON-serializable values:
// documents become maps, arrays become slices, ObjectIDs become hex strings.
func plainValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return plainMap(val)
	case bson.D:
		return plainDoc(val)
	case bson.A:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = plainValue(item)
		}
		return arr
	case []any:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = plainValue(item)
		}
		return arr
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time()
	case bson.Decimal128:
		return val.String()
	default:
		return v
	}
}

func plainMap(doc bson.M) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	return out
}

func plainDoc(doc bson.D) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for _, elem := range doc {
		out[elem.Key] = plainValue(elem.Value)
	}
	return out
}
