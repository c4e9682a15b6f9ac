package models

// Status is the response category exposed to callers.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusError    Status = "ERROR"
	StatusNotFound Status = "NOT_FOUND"
)

// Reason refines a status for transports and metrics. It is never serialized.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonInvalidRequest Reason = "invalid_request"
	ReasonMissingData    Reason = "missing_data"
	ReasonMissingKey     Reason = "missing_key"
	ReasonNotFound       Reason = "not_found"
	ReasonNoMatch        Reason = "no_match"
	ReasonStoreFailure   Reason = "store_failure"
)

// Response messages.
const (
	MsgInvalidRequest = "Invalid request"
	MsgInvalidAction  = "Invalid action type: "
	MsgMissingData    = "Missing data"
	MsgMissingSearch  = "Missing data for search"
	MsgMissingKey     = "oldAadhaarLinkageKey required"
	MsgRecordNotFound = "Record not found"
	MsgNoRecordFound  = "No record found"
	MsgInserted       = "Record inserted successfully"
	MsgUpdated        = "Record updated successfully"
	MsgDeleted        = "Record deleted successfully"
	MsgFound          = "Record found"
)

// Response is the single outcome of every dispatched request.
type Response struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Record  *PersonIdentity `json:"record,omitempty"`
	Reason  Reason          `json:"-"`
}

// Success builds a SUCCESS response with an optional record.
func Success(message string, record *PersonIdentity) Response {
	return Response{Status: StatusSuccess, Message: message, Record: record}
}

// Error builds an ERROR response.
func Error(reason Reason, message string) Response {
	return Response{Status: StatusError, Message: message, Reason: reason}
}

// NotFound builds a NOT_FOUND response. It is a valid outcome, not an error.
func NotFound(reason Reason, message string) Response {
	return Response{Status: StatusNotFound, Message: message, Reason: reason}
}

// IsSuccess reports whether the response status is SUCCESS.
func (r Response) IsSuccess() bool { return r.Status == StatusSuccess }
