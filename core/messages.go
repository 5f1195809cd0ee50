package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
)

// User-facing failure messages, one per failure class.
const (
	MsgCodingTimeFailed = "failed to fetch coding-time data; check service permissions"
	MsgAnalyticsFailed  = "failed to fetch workspace analytics; check the workspace credentials"
	MsgProfileFailed    = "failed to fetch the workspace profile"
	MsgUnexpectedData   = "an upstream service returned data in an unexpected shape"
	MsgNoCodingTime     = "no coding time was recorded for this range, so there is nothing to compare against"
	MsgMisconfigured    = "the service is misconfigured"
	MsgInternal         = "something went wrong while building the report"
)

// UserMessage renders err as the single message shown to an end user.
// Any failure while fetching coding time gets the permissions hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if contract.FailedStage(err) == schema.StageFetchCodingTime {
		return MsgCodingTimeFailed
	}

	switch contract.FailureKind(err) {
	case contract.KindNotFound:
		var nf *contract.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Sprintf("couldn't find a workspace member named %q", nf.Username)
		}
		return MsgInternal
	case contract.KindUpstream:
		var upErr *contract.UpstreamError
		if errors.As(err, &upErr) && upErr.Service == "profile" {
			return MsgProfileFailed
		}
		return MsgAnalyticsFailed
	case contract.KindSchema:
		return MsgUnexpectedData
	case contract.KindDivisionByZero:
		return MsgNoCodingTime
	case contract.KindConfig:
		return MsgMisconfigured
	default:
		return MsgInternal
	}
}
