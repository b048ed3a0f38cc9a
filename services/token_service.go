package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"editorial-submission-api/models"
	"editorial-submission-api/repository"
)

// TokenConfig bounds token lifetimes.
type TokenConfig struct {
	DefaultExpiryDays int
	MaxRenewalDays    int
	AuthorPortalURL   string
	AdminEmails       []string
}

func (c *TokenConfig) applyDefaults() {
	if c.DefaultExpiryDays <= 0 {
		c.DefaultExpiryDays = 30
	}
	if c.MaxRenewalDays <= 0 {
		c.MaxRenewalDays = 90
	}
}

// TokenInfo describes the validity window of a checked token.
type TokenInfo struct {
	ExpiresAt    time.Time `json:"expires_at"`
	DaysToExpiry int       `json:"days_to_expiry"`
}

// TokenValidation is the outcome of a token check. An expired token reports
// Valid=false with the submission snapshot attached so the boundary can offer
// recovery guidance; that is intentional, not an error swallow.
type TokenValidation struct {
	Valid      bool               `json:"valid"`
	Reason     string             `json:"reason,omitempty"`
	Submission *models.Submission `json:"submission,omitempty"`
	TokenInfo  *TokenInfo         `json:"token_info,omitempty"`
}

// ReactivationResult reports the outcome of recovering an expired submission.
type ReactivationResult struct {
	Token     string                  `json:"token"`
	Status    models.SubmissionStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// CleanupResult reports one expiry sweep.
type CleanupResult struct {
	ExpiredCount       int                 `json:"expired_count"`
	ExpiredSubmissions []models.Submission `json:"expired_submissions"`
}

// TokenService issues and checks submission access tokens and owns the expiry
// sweep.
type TokenService struct {
	subs     repository.SubmissionRepository
	feedback repository.FeedbackRepository
	notifier Notifier
	cfg      TokenConfig
	now      func() time.Time
}

// NewTokenService wires the token service to its collaborators.
func NewTokenService(subs repository.SubmissionRepository, feedback repository.FeedbackRepository, notifier Notifier, cfg TokenConfig) *TokenService {
	cfg.applyDefaults()
	return &TokenService{
		subs:     subs,
		feedback: feedback,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Issue mints the initial token and expiry onto a submission being created.
// The caller persists the record.
func (t *TokenService) Issue(s *models.Submission) error {
	token, err := GenerateToken()
	if err != nil {
		return err
	}
	s.Token = token
	s.ExpiresAt = t.now().AddDate(0, 0, t.cfg.DefaultExpiryDays)
	return nil
}

// Validate checks format, existence and expiry of a token.
func (t *TokenService) Validate(token string) *TokenValidation {
	if !IsWellFormedToken(token) {
		return &TokenValidation{Valid: false, Reason: ReasonTokenInvalidFormat}
	}

	sub, err := t.subs.ByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &TokenValidation{Valid: false, Reason: ReasonTokenNotFound}
		}
		slog.Error("token lookup failed", "error", err)
		return &TokenValidation{Valid: false, Reason: ReasonValidationError}
	}

	now := t.now()
	if sub.Expired(now) || sub.Status == models.StatusExpired {
		return &TokenValidation{Valid: false, Reason: ReasonTokenExpired, Submission: sub}
	}

	days := int(sub.ExpiresAt.Sub(now).Hours() / 24)
	return &TokenValidation{
		Valid:      true,
		Submission: sub,
		TokenInfo:  &TokenInfo{ExpiresAt: sub.ExpiresAt, DaysToExpiry: days},
	}
}

// ValidateAuthorEmail matches the supplied email against the stored author
// email, case- and whitespace-insensitively. A mismatch is treated as a
// security-relevant event: it may indicate credential guessing against a
// leaked submission id.
func (t *TokenService) ValidateAuthorEmail(submissionID, suppliedEmail string) error {
	sub, err := t.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return err
	}

	if normalizeEmail(suppliedEmail) == normalizeEmail(sub.AuthorEmail) {
		return nil
	}

	slog.Warn("author email mismatch",
		"event", "security",
		"submission_id", submissionID,
	)
	if t.notifier != nil && len(t.cfg.AdminEmails) > 0 {
		if err := t.notifier.Send(KindSecurityAlert, t.cfg.AdminEmails, map[string]string{
			"SubmissionID": submissionID,
			"Detail":       "author email mismatch on anonymous access",
		}); err != nil {
			slog.Error("failed to send security alert", "error", err)
		}
	}
	return &InvalidTokenError{Reason: "author email does not match"}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Renew extends the expiry window without rotating the token value.
// Out-of-range day counts are a caller validation error, never clamped.
func (t *TokenService) Renew(submissionID string, additionalDays int) (time.Time, error) {
	if additionalDays <= 0 || additionalDays > t.cfg.MaxRenewalDays {
		return time.Time{}, &ValidationError{
			Field:   "additional_days",
			Message: fmt.Sprintf("must be between 1 and %d", t.cfg.MaxRenewalDays),
		}
	}

	sub, err := t.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return time.Time{}, &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return time.Time{}, err
	}
	if sub.Status.IsTerminal() || sub.Status == models.StatusExpired {
		return time.Time{}, &InvalidStatusError{
			Current: sub.Status,
			Allowed: []models.SubmissionStatus{
				models.StatusDraft, models.StatusUnderReview,
				models.StatusChangesRequested, models.StatusApproved,
			},
			Attempt: "renew token",
		}
	}

	newExpiry := sub.ExpiresAt.AddDate(0, 0, additionalDays)
	if _, err := t.subs.Update(submissionID, map[string]any{
		"expires_at": newExpiry,
		"updated_at": t.now(),
	}); err != nil {
		return time.Time{}, err
	}
	return newExpiry, nil
}

// Regenerate issues a brand-new token for a live submission. The old token is
// invalid the moment the update lands; there is no grace period.
func (t *TokenService) Regenerate(submissionID string) (string, time.Time, error) {
	sub, err := t.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return "", time.Time{}, err
	}
	if sub.Status.IsTerminal() || sub.Status == models.StatusExpired {
		return "", time.Time{}, &InvalidStatusError{
			Current: sub.Status,
			Allowed: []models.SubmissionStatus{
				models.StatusDraft, models.StatusUnderReview,
				models.StatusChangesRequested, models.StatusApproved,
			},
			Attempt: "regenerate token",
		}
	}

	token, err := GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := t.now().AddDate(0, 0, t.cfg.DefaultExpiryDays)
	if _, err := t.subs.Update(submissionID, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
		"updated_at": t.now(),
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ReactivateExpired recovers an EXPIRED submission with a fresh token. The
// target status is CHANGES_REQUESTED when feedback already exists for the
// author to address, DRAFT otherwise.
func (t *TokenService) ReactivateExpired(submissionID string, expiryDays int) (*ReactivationResult, error) {
	sub, err := t.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return nil, err
	}
	if err := CheckReactivate(sub.Status); err != nil {
		return nil, err
	}
	if expiryDays <= 0 {
		expiryDays = t.cfg.DefaultExpiryDays
	}

	count, err := t.feedback.CountBySubmission(submissionID)
	if err != nil {
		return nil, err
	}
	target := ReactivationTarget(count > 0)

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	expiresAt := t.now().AddDate(0, 0, expiryDays)
	if _, err := t.subs.Update(submissionID, map[string]any{
		"token":      token,
		"status":     target,
		"expires_at": expiresAt,
		"updated_at": t.now(),
	}); err != nil {
		return nil, err
	}

	slog.Info("submission reactivated", "submission_id", submissionID, "status", string(target))
	return &ReactivationResult{Token: token, Status: target, ExpiresAt: expiresAt}, nil
}

// FindExpiring lists live submissions whose window closes within daysAhead,
// soonest first.
func (t *TokenService) FindExpiring(daysAhead int) ([]models.Submission, error) {
	if daysAhead <= 0 {
		return nil, &ValidationError{Field: "days_ahead", Message: "must be positive"}
	}
	return t.subs.ExpiringWithin(t.now(), daysAhead)
}

// CleanupExpired sweeps submissions past their expiry into EXPIRED and tells
// the authors. Running it again with no new expirations is a no-op.
func (t *TokenService) CleanupExpired() (*CleanupResult, error) {
	stale, err := t.subs.PastExpiry(t.now())
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{ExpiredSubmissions: make([]models.Submission, 0, len(stale))}
	for _, sub := range stale {
		updated, err := t.subs.Update(sub.SubmissionID, map[string]any{
			"status":     models.StatusExpired,
			"updated_at": t.now(),
		})
		if err != nil {
			slog.Error("failed to expire submission", "submission_id", sub.SubmissionID, "error", err)
			continue
		}
		result.ExpiredCount++
		result.ExpiredSubmissions = append(result.ExpiredSubmissions, *updated)

		if t.notifier != nil {
			if err := t.notifier.Send(KindTokenExpired, []string{sub.AuthorEmail}, map[string]string{
				"AuthorName": sub.AuthorName,
				"Title":      sub.Title,
			}); err != nil {
				slog.Error("failed to send expiry notice", "submission_id", sub.SubmissionID, "error", err)
			}
		}
	}

	if result.ExpiredCount > 0 {
		slog.Info("expiry sweep finished", "expired", result.ExpiredCount)
	}
	return result, nil
}
