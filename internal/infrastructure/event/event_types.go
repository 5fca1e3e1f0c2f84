package event

import "github.com/kouden/backend/internal/domain/kouden"

// ReturnRecordEventTypes lists every return record event type
func ReturnRecordEventTypes() []string {
	return []string{
		kouden.EventTypeReturnRecordCreated,
		kouden.EventTypeReturnRecordUpdated,
		kouden.EventTypeReturnRecordsBulkUpdated,
		kouden.EventTypeReturnRecordsDeleted,
	}
}
