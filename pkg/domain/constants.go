package domain

// Terminal call statuses reported by the carrier.
const (
	CallCompleted = "completed"
	CallBusy      = "busy"
	CallFailed    = "failed"
	CallNoAnswer  = "no-answer"
	CallCanceled  = "canceled"
)

// ContentTypeXML is the content type of voice markup documents.
const ContentTypeXML = "text/xml; charset=utf-8"
