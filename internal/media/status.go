package media

// MediaStatus is the downstream library status of a title or season.
type MediaStatus int

const (
	StatusUnknown            MediaStatus = 1
	StatusPending            MediaStatus = 2
	StatusProcessing         MediaStatus = 3
	StatusPartiallyAvailable MediaStatus = 4
	StatusAvailable          MediaStatus = 5
	StatusDeleted            MediaStatus = 6
)

// InLibrary reports whether the service tracks the title in any state other
// than unknown or deleted.
func (s MediaStatus) InLibrary() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPartiallyAvailable, StatusAvailable:
		return true
	default:
		return false
	}
}

func (s MediaStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusProcessing:
		return "PROCESSING"
	case StatusPartiallyAvailable:
		return "PARTIALLY_AVAILABLE"
	case StatusAvailable:
		return "AVAILABLE"
	case StatusDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Humanize returns the status as a lowercase phrase for messages.
func (s MediaStatus) Humanize() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusPartiallyAvailable:
		return "partially available"
	case StatusAvailable:
		return "available"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RequestStatus is the approval state of a request.
type RequestStatus int

const (
	RequestPendingApproval RequestStatus = 1
	RequestApproved        RequestStatus = 2
	RequestDeclined        RequestStatus = 3
	RequestFailed          RequestStatus = 4
	RequestCompleted       RequestStatus = 5
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPendingApproval:
		return "PENDING_APPROVAL"
	case RequestApproved:
		return "APPROVED"
	case RequestDeclined:
		return "DECLINED"
	case RequestFailed:
		return "FAILED"
	case RequestCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}
