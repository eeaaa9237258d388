package repository

import "encoding/json"

// mergePatch overlays a partial update onto the current document and decodes
// the result back into the entity type, so the merged document can be
// re-validated before anything is written. Patch keys are checked against
// the updatable whitelist first; keys the entity does not allow fail the
// whole update.
func mergePatch[T any](current T, patch map[string]any, updatable map[string]string) (T, error) {
	var zero T
	for field := range patch {
		if _, ok := updatable[field]; !ok {
			return zero, unknownField(field)
		}
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return zero, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, err
	}
	for field, val := range patch {
		doc[field] = val
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	var merged T
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, validationFailed(err)
	}
	return merged, nil
}
