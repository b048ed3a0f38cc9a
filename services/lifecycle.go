package services

import (
	"time"

	"editorial-submission-api/models"
)

// Lifecycle event names, used in InvalidStatusError diagnostics and audit details.
const (
	EventSubmitForReview = "submit_for_review"
	EventAdminReview     = "review"
	EventPublish         = "publish"
	EventSendFeedback    = "send_feedback"
	EventReactivate      = "reactivate"
	EventExpire          = "expire"
	EventModifyFiles     = "modify_attachments"
)

// Transition table. Each event lists the statuses it may fire from; anything
// else raises InvalidStatusError. Expiry is time-driven and may fire from any
// non-terminal status.
var (
	submitForReviewFrom = []models.SubmissionStatus{
		models.StatusDraft,
		models.StatusChangesRequested,
	}
	adminReviewFrom = []models.SubmissionStatus{
		models.StatusDraft,
		models.StatusUnderReview,
		models.StatusChangesRequested,
	}
	publishFrom = []models.SubmissionStatus{
		models.StatusApproved,
	}
	reactivateFrom = []models.SubmissionStatus{
		models.StatusExpired,
	}
)

// decisionToStatus is the single bidirectional mapping between review
// decisions and submission statuses. Both directions live here so the two
// lookups can never drift apart.
var decisionToStatus = map[models.ReviewDecision]models.SubmissionStatus{
	models.DecisionApproved:         models.StatusApproved,
	models.DecisionRejected:         models.StatusRejected,
	models.DecisionChangesRequested: models.StatusChangesRequested,
	models.DecisionPending:          models.StatusUnderReview,
}

func statusIn(status models.SubmissionStatus, allowed []models.SubmissionStatus) bool {
	for _, a := range allowed {
		if status == a {
			return true
		}
	}
	return false
}

// CheckSubmitForReview validates the author-side submit transition.
func CheckSubmitForReview(status models.SubmissionStatus) error {
	if !statusIn(status, submitForReviewFrom) {
		return &InvalidStatusError{Current: status, Allowed: submitForReviewFrom, Attempt: EventSubmitForReview}
	}
	return nil
}

// CheckAdminReview validates that a review decision may be recorded from the
// current status.
func CheckAdminReview(status models.SubmissionStatus) error {
	if !statusIn(status, adminReviewFrom) {
		return &InvalidStatusError{Current: status, Allowed: adminReviewFrom, Attempt: EventAdminReview}
	}
	return nil
}

// CheckPublish validates the publish transition; only APPROVED submissions
// may be published.
func CheckPublish(status models.SubmissionStatus) error {
	if !statusIn(status, publishFrom) {
		return &InvalidStatusError{Current: status, Allowed: publishFrom, Attempt: EventPublish}
	}
	return nil
}

// CheckSendFeedback validates that feedback may still reach the author. Any
// non-terminal status accepts feedback; if the submission is not already in
// CHANGES_REQUESTED the caller transitions it there.
func CheckSendFeedback(status models.SubmissionStatus) error {
	if status.IsTerminal() || status == models.StatusExpired {
		allowed := []models.SubmissionStatus{
			models.StatusDraft,
			models.StatusUnderReview,
			models.StatusChangesRequested,
			models.StatusApproved,
		}
		return &InvalidStatusError{Current: status, Allowed: allowed, Attempt: EventSendFeedback}
	}
	return nil
}

// CheckAttachmentWrite validates that the author may still add or remove
// attachments. PUBLISHED and REJECTED revoke write access outright; EXPIRED
// requires admin reactivation first.
func CheckAttachmentWrite(status models.SubmissionStatus) error {
	if status.IsTerminal() || status == models.StatusExpired {
		allowed := []models.SubmissionStatus{
			models.StatusDraft,
			models.StatusUnderReview,
			models.StatusChangesRequested,
			models.StatusApproved,
		}
		return &InvalidStatusError{Current: status, Allowed: allowed, Attempt: EventModifyFiles}
	}
	return nil
}

// CheckReactivate validates admin recovery of an expired submission.
func CheckReactivate(status models.SubmissionStatus) error {
	if !statusIn(status, reactivateFrom) {
		return &InvalidStatusError{Current: status, Allowed: reactivateFrom, Attempt: EventReactivate}
	}
	return nil
}

// StatusForDecision maps a review decision to the submission status it
// produces.
func StatusForDecision(d models.ReviewDecision) (models.SubmissionStatus, bool) {
	status, ok := decisionToStatus[d]
	return status, ok
}

// DecisionForStatus is the reverse lookup of StatusForDecision.
func DecisionForStatus(status models.SubmissionStatus) (models.ReviewDecision, bool) {
	for d, s := range decisionToStatus {
		if s == status {
			return d, true
		}
	}
	return "", false
}

// ReactivationTarget decides where an expired submission lands: back to
// CHANGES_REQUESTED when feedback already exists for the author to address,
// otherwise back to DRAFT.
func ReactivationTarget(hasFeedback bool) models.SubmissionStatus {
	if hasFeedback {
		return models.StatusChangesRequested
	}
	return models.StatusDraft
}

// Expirable reports whether a submission past its expires_at should be swept
// to EXPIRED. Terminal and already-expired submissions are left alone.
func Expirable(s *models.Submission, now time.Time) bool {
	if s.Status.IsTerminal() || s.Status == models.StatusExpired {
		return false
	}
	return s.Expired(now)
}
