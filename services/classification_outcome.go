package services

import (
	"jobfill/models"
)

// ClassificationOutcome is the result of one classification batch. It is
// exactly one of ClassificationOK, ClassificationParseFailure or
// ClassificationUpstreamFailure.
type ClassificationOutcome interface {
	isClassificationOutcome()
}

// ClassificationOK carries one entry per request field, in request order.
type ClassificationOK struct {
	Fields     []models.ClassifiedField
	ResumeUsed bool
}

// ClassificationParseFailure means the model answered with something that is
// not the expected JSON. Fallback holds the locally derived answers padded to
// the batch length; it may be all zero-confidence.
type ClassificationParseFailure struct {
	Raw        string
	Err        error
	Fallback   []models.ClassifiedField
	ResumeUsed bool
}

// ClassificationUpstreamFailure means the model or remote classifier could
// not be reached or refused the call.
type ClassificationUpstreamFailure struct {
	Provider string
	Status   int
	Body     string
}

func (ClassificationOK) isClassificationOutcome()              {}
func (ClassificationParseFailure) isClassificationOutcome()    {}
func (ClassificationUpstreamFailure) isClassificationOutcome() {}

// upstreamFailure converts an UpstreamError into its outcome.
func upstreamFailure(err *UpstreamError) ClassificationUpstreamFailure {
	return ClassificationUpstreamFailure{Provider: err.Provider, Status: err.Status, Body: err.Body}
}

// ToResponse renders an outcome the way the HTTP API returns it. Upstream
// failures have no response body of this shape and return false.
func ToResponse(outcome ClassificationOutcome) (models.ClassificationResponse, bool) {
	switch o := outcome.(type) {
	case ClassificationOK:
		return models.ClassificationResponse{Fields: o.Fields, ResumeUsed: o.ResumeUsed}, true
	case ClassificationParseFailure:
		return models.ClassificationResponse{Fields: o.Fallback, ResumeUsed: o.ResumeUsed, ParseFailure: true}, true
	}
	return models.ClassificationResponse{}, false
}
