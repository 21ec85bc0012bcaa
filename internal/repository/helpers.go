package repository

import "github.com/google/uuid"

// uuidStrings готовит идентификаторы для pq.Array и приведения ::uuid[].
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
