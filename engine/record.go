package engine

// cloneRecord deep copies a record so that neither the caller's input nor a
// returned result aliases table state.
func cloneRecord(r Record) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneRecord(t)
	case []Record:
		out := make([]Record, len(t))
		for i, r := range t {
			out[i] = cloneRecord(r)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case nil:
		return nil
	}
	if isList(v) {
		// typed slices ([]int, []string, ...) become []any, which is also the shape
		// JSON decoding produces
		return cloneValue(listItems(v))
	}
	return v
}

func cloneRecords(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = cloneRecord(r)
	}
	return out
}
