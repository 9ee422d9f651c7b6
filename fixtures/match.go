package fixtures

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

// matches is true if record is an object that has every property of attrs with an equal value.
// Values are compared as JSON, so 10000 matches 10000.0 and nested objects compare deeply.
func matches(record, attrs ldvalue.Value) bool {
	if record.Type() != ldvalue.ObjectType {
		return false
	}
	keys := make(map[string]struct{}, record.Count())
	for _, k := range record.Keys() {
		keys[k] = struct{}{}
	}
	for _, k := range attrs.Keys() {
		if _, ok := keys[k]; !ok {
			return false
		}
		if !record.GetByKey(k).Equal(attrs.GetByKey(k)) {
			return false
		}
	}
	return true
}

func filterRecords(records []ldvalue.Value, attrs ldvalue.Value) []ldvalue.Value {
	ret := []ldvalue.Value{}
	for _, r := range records {
		if matches(r, attrs) {
			ret = append(ret, r)
		}
	}
	return ret
}

func findRecord(records []ldvalue.Value, attrs ldvalue.Value) ldvalue.Value {
	for _, r := range records {
		if matches(r, attrs) {
			return r
		}
	}
	return ldvalue.Null()
}
