package module

import (
	"strconv"
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// Completion and verification flag values
const (
	CompletionPartial      = "PARTIAL"
	CompletionComplete     = "COMPLETE"
	VerificationUnverified = "UNVERIFIED"
	VerificationVerified   = "VERIFIED"
)

// SRDocumentGeneralModule represents the SR Document General Module
type SRDocumentGeneralModule struct {
	InstanceNumber   int
	CompletionFlag   string
	VerificationFlag string
	ContentDate      Date
	ContentTime      Time
}

// NewSRDocumentGeneralModule returns a partial, unverified document timestamped now
func NewSRDocumentGeneralModule() SRDocumentGeneralModule {
	t := time.Now()
	return SRDocumentGeneralModule{
		InstanceNumber:   1,
		CompletionFlag:   CompletionPartial,
		VerificationFlag: VerificationUnverified,
		ContentDate:      NewDate(t),
		ContentTime:      NewTime(t),
	}
}

func (m *SRDocumentGeneralModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.InstanceNumber, Value: strconv.Itoa(m.InstanceNumber)},
		{Tag: tag.CompletionFlag, Value: m.CompletionFlag},
		{Tag: tag.VerificationFlag, Value: m.VerificationFlag},
		{Tag: tag.ContentDate, Value: m.ContentDate.String()},
		{Tag: tag.ContentTime, Value: m.ContentTime.String()},
	}
}
