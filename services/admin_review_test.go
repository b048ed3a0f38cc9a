package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"editorial-submission-api/models"
	"editorial-submission-api/repository"
)

type adminTestEnv struct {
	engine   *AdminReviewEngine
	tokens   *TokenService
	subs     *fakeSubmissionRepo
	feedback *fakeFeedbackRepo
	reviews  *fakeReviewRepo
	logs     *fakeActionLogRepo
	notifier *recorderNotifier
}

func newAdminTestEnv(now time.Time, submissions ...*models.Submission) *adminTestEnv {
	subs := newFakeSubmissionRepo(submissions...)
	feedback := &fakeFeedbackRepo{}
	reviews := &fakeReviewRepo{}
	logs := &fakeActionLogRepo{}
	notifier := &recorderNotifier{}

	repos := &repository.Repositories{
		Submissions: subs,
		Feedback:    feedback,
		Reviews:     reviews,
		ActionLogs:  logs,
		Files:       newFakeFileRepo(subs),
	}
	tokens := newTestTokenService(subs, feedback, notifier, now)
	engine := NewAdminReviewEngine(repos, tokens, notifier, "https://revista.test/")
	engine.now = func() time.Time { return now }

	return &adminTestEnv{
		engine:   engine,
		tokens:   tokens,
		subs:     subs,
		feedback: feedback,
		reviews:  reviews,
		logs:     logs,
		notifier: notifier,
	}
}

func underReview(id, token string, now time.Time) *models.Submission {
	s := draftSubmission(id, token, now.AddDate(0, 0, 20))
	s.Status = models.StatusUnderReview
	submitted := now.Add(-24 * time.Hour)
	s.SubmittedAt = &submitted
	return s
}

func TestReviewSubmissionApprove(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	review, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionApproved, "Bom trabalho", "")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.Status != models.DecisionApproved {
		t.Errorf("review status = %s", review.Status)
	}

	sub, _ := env.subs.ByID("sub-1")
	if sub.Status != models.StatusApproved {
		t.Errorf("submission status = %s, want APPROVED", sub.Status)
	}
	if sub.ReviewedBy == nil || *sub.ReviewedBy != "adm-1" {
		t.Error("reviewed_by must record the acting admin")
	}

	rows, _ := env.reviews.BySubmission("sub-1")
	if len(rows) != 1 {
		t.Errorf("review rows = %d, want 1", len(rows))
	}
	logs, _, _ := env.logs.List(repository.ActionLogFilter{AdminID: "adm-1", Action: "review_submission"})
	if len(logs) != 1 {
		t.Errorf("audit entries = %d, want 1", len(logs))
	}

	// Approval notification waits for publish.
	if len(env.notifier.sent) != 0 {
		t.Errorf("approve must not mail the author yet, sent %v", env.notifier.sent)
	}
}

func TestReviewSubmissionReject(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	_, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionRejected, "", "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("reject without reason: expected ValidationError, got %v", err)
	}

	review, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionRejected, "", "Fora do escopo editorial")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if review.RejectionReason == nil || *review.RejectionReason != "Fora do escopo editorial" {
		t.Error("rejection reason must be recorded on the review row")
	}

	sub, _ := env.subs.ByID("sub-1")
	if sub.Status != models.StatusRejected {
		t.Errorf("status = %s, want REJECTED", sub.Status)
	}
	if notices := env.notifier.byKind(KindRejectionNotice); len(notices) != 1 {
		t.Errorf("rejection notices = %d, want 1", len(notices))
	}
}

func TestReviewResolvesAddressedFeedback(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))
	env.feedback.Create(&models.AdminFeedback{
		FeedbackID:   "fb-1",
		SubmissionID: "sub-1",
		Content:      "Revisar as citações.",
		Status:       models.FeedbackAddressed,
	})

	if _, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionApproved, "", ""); err != nil {
		t.Fatalf("review: %v", err)
	}
	rows, _ := env.feedback.BySubmission("sub-1")
	if rows[0].Status != models.FeedbackResolved {
		t.Errorf("feedback status = %s, want RESOLVED", rows[0].Status)
	}
}

func TestReviewRejectsTerminalStatus(t *testing.T) {
	now := time.Now()
	sub := underReview("sub-1", testToken, now)
	sub.Status = models.StatusPublished
	env := newAdminTestEnv(now, sub)

	_, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionApproved, "", "")
	var statusErr *InvalidStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
	if statusErr.Current != models.StatusPublished {
		t.Errorf("error current = %s", statusErr.Current)
	}
}

func TestSendFeedback(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	fb, err := env.engine.SendFeedback("sub-1", "adm-1", "Ana", "O segundo capítulo precisa de revisão.")
	if err != nil {
		t.Fatalf("send feedback: %v", err)
	}
	if fb.Status != models.FeedbackPending {
		t.Errorf("feedback status = %s, want PENDING", fb.Status)
	}

	sub, _ := env.subs.ByID("sub-1")
	if sub.Status != models.StatusChangesRequested {
		t.Errorf("status = %s, want CHANGES_REQUESTED", sub.Status)
	}
	if mails := env.notifier.byKind(KindFeedback); len(mails) != 1 {
		t.Errorf("feedback mails = %d, want 1", len(mails))
	}
	logs, _, _ := env.logs.List(repository.ActionLogFilter{AdminID: "adm-1", Action: "send_feedback"})
	if len(logs) != 1 {
		t.Errorf("audit entries = %d, want 1", len(logs))
	}
}

func TestSendFeedbackSurvivesMailFailure(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))
	env.notifier.fail = errors.New("smtp down")

	if _, err := env.engine.SendFeedback("sub-1", "adm-1", "Ana", "Comentário."); err != nil {
		t.Fatalf("a mail failure must not fail the feedback call: %v", err)
	}
	rows, _ := env.feedback.BySubmission("sub-1")
	if len(rows) != 1 {
		t.Errorf("feedback rows = %d, want 1", len(rows))
	}
}

func TestPublishSubmission(t *testing.T) {
	now := time.Now()

	t.Run("missing submission", func(t *testing.T) {
		env := newAdminTestEnv(now)
		result := env.engine.PublishSubmission("ghost", "adm-1", PublishRequest{})
		if result.Success {
			t.Fatal("publish of a missing submission must fail")
		}
		if result.Error != "Submissão não encontrada" {
			t.Errorf("error = %q", result.Error)
		}
	})

	t.Run("guard leaves the submission untouched", func(t *testing.T) {
		sub := underReview("sub-1", testToken, now)
		before := sub.UpdatedAt
		env := newAdminTestEnv(now, sub)

		result := env.engine.PublishSubmission("sub-1", "adm-1", PublishRequest{})
		if result.Success {
			t.Fatal("publish from UNDER_REVIEW must fail")
		}
		stored, _ := env.subs.ByID("sub-1")
		if !stored.UpdatedAt.Equal(before) {
			t.Error("a rejected publish must not mutate the submission")
		}
		if stored.PublishedSlug != nil {
			t.Error("no slug may be recorded on a failed publish")
		}
	})

	t.Run("happy path derives an accent-free slug", func(t *testing.T) {
		sub := underReview("sub-1", testToken, now)
		sub.Status = models.StatusApproved
		sub.Title = "Café & Filosofia!"
		env := newAdminTestEnv(now, sub)

		result := env.engine.PublishSubmission("sub-1", "adm-1", PublishRequest{})
		if !result.Success {
			t.Fatalf("publish failed: %s", result.Error)
		}
		if result.Slug != "cafe-filosofia" {
			t.Errorf("slug = %q, want cafe-filosofia", result.Slug)
		}
		if result.ArticleURL != "https://revista.test/articles/cafe-filosofia" {
			t.Errorf("article URL = %q", result.ArticleURL)
		}

		stored, _ := env.subs.ByID("sub-1")
		if stored.Status != models.StatusPublished {
			t.Errorf("status = %s, want PUBLISHED", stored.Status)
		}
		if notices := env.notifier.byKind(KindPublishNotice); len(notices) != 1 {
			t.Errorf("publish notices = %d, want 1", len(notices))
		}
	})

	t.Run("slug override wins", func(t *testing.T) {
		sub := underReview("sub-1", testToken, now)
		sub.Status = models.StatusApproved
		env := newAdminTestEnv(now, sub)

		result := env.engine.PublishSubmission("sub-1", "adm-1", PublishRequest{SlugOverride: "edicao-especial"})
		if !result.Success || result.Slug != "edicao-especial" {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestPerformBulkActionPartialFailure(t *testing.T) {
	now := time.Now()
	good1 := underReview("sub-1", testToken, now)
	good2 := underReview("sub-2", otherToken, now)
	published := underReview("sub-3", strings.Repeat("ef", 32), now)
	published.Status = models.StatusPublished
	env := newAdminTestEnv(now, good1, good2, published)

	result, err := env.engine.PerformBulkAction(BulkActionRequest{
		Action:        BulkApprove,
		SubmissionIDs: []string{"sub-1", "sub-2", "sub-3", "ghost"},
	}, "adm-1", "Ana")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}

	if result.Summary.Total != 4 || result.Summary.Successful != 2 || result.Summary.Failed != 2 {
		t.Fatalf("summary = %+v", result.Summary)
	}
	failedByID := make(map[string]string)
	for _, f := range result.Failed {
		failedByID[f.ID] = f.Error
	}
	if failedByID["ghost"] != "Submissão não encontrada" {
		t.Errorf("ghost error = %q", failedByID["ghost"])
	}
	if _, ok := failedByID["sub-3"]; !ok {
		t.Error("published submission must fail the approve action")
	}

	for _, id := range []string{"sub-1", "sub-2"} {
		sub, _ := env.subs.ByID(id)
		if sub.Status != models.StatusApproved {
			t.Errorf("%s status = %s, want APPROVED", id, sub.Status)
		}
	}

	logs, _, _ := env.logs.List(repository.ActionLogFilter{AdminID: "adm-1", Action: "bulk_action"})
	if len(logs) != 1 {
		t.Errorf("bulk audit entries = %d, want exactly one aggregate entry", len(logs))
	}
}

func TestPerformBulkActionValidation(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now)

	cases := []struct {
		name string
		req  BulkActionRequest
	}{
		{"no ids", BulkActionRequest{Action: BulkApprove}},
		{"over the ceiling", BulkActionRequest{Action: BulkApprove, SubmissionIDs: make([]string, 51)}},
		{"unknown action", BulkActionRequest{Action: "archive", SubmissionIDs: []string{"sub-1"}}},
		{"reject without reason", BulkActionRequest{Action: BulkReject, SubmissionIDs: []string{"sub-1"}}},
		{"extend without days", BulkActionRequest{Action: BulkExtendExpiry, SubmissionIDs: []string{"sub-1"}}},
	}
	for _, tc := range cases {
		_, err := env.engine.PerformBulkAction(tc.req, "adm-1", "Ana")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestPerformBulkActionExtendExpiry(t *testing.T) {
	now := time.Now()
	sub := underReview("sub-1", testToken, now)
	expiry := sub.ExpiresAt
	env := newAdminTestEnv(now, sub)

	result, err := env.engine.PerformBulkAction(BulkActionRequest{
		Action:        BulkExtendExpiry,
		SubmissionIDs: []string{"sub-1"},
		ExtendDays:    30,
	}, "adm-1", "Ana")
	if err != nil {
		t.Fatalf("bulk extend: %v", err)
	}
	if result.Summary.Successful != 1 {
		t.Fatalf("summary = %+v", result.Summary)
	}

	stored, _ := env.subs.ByID("sub-1")
	if want := expiry.AddDate(0, 0, 30); !stored.ExpiresAt.Equal(want) {
		t.Errorf("expiry = %v, want %v", stored.ExpiresAt, want)
	}
}

func TestGetSubmissionsSanitizesInput(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	_, err := env.engine.GetSubmissions(repository.SubmissionFilter{
		Statuses: []models.SubmissionStatus{"SHOUTING"},
	}, "adm-1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("unknown status: expected ValidationError, got %v", err)
	}

	page, err := env.engine.GetSubmissions(repository.SubmissionFilter{
		SortBy:   "password; DROP TABLE submissions",
		Page:     -3,
		PageSize: 100000,
	}, "adm-1")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want clamped to 1", page.Page)
	}
	if page.PageSize != 100 {
		t.Errorf("page size = %d, want capped at 100", page.PageSize)
	}
}

func TestSearchSubmissions(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	_, err := env.engine.SearchSubmissions(" a ", "adm-1", repository.SubmissionFilter{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("short query: expected ValidationError, got %v", err)
	}

	results, err := env.engine.SearchSubmissions("jardins", "adm-1", repository.SubmissionFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestSearchSubmissionsHonorsFilters(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now, underReview("sub-1", testToken, now))

	results, err := env.engine.SearchSubmissions("jardins", "adm-1", repository.SubmissionFilter{
		Statuses: []models.SubmissionStatus{models.StatusRejected},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 after status filter", len(results))
	}

	results, err = env.engine.SearchSubmissions("jardins", "adm-1", repository.SubmissionFilter{
		Statuses:   []models.SubmissionStatus{models.StatusUnderReview},
		Categories: []string{"urbanismo"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1 with matching filters", len(results))
	}

	_, err = env.engine.SearchSubmissions("jardins", "adm-1", repository.SubmissionFilter{
		Statuses: []models.SubmissionStatus{"BOGUS"},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("unknown status: expected ValidationError, got %v", err)
	}
}

func TestGetAdminActionLogScopesToCaller(t *testing.T) {
	now := time.Now()
	env := newAdminTestEnv(now)
	env.logs.Create(&models.AdminActionLog{LogID: "l1", AdminID: "adm-1", Action: "x"})
	env.logs.Create(&models.AdminActionLog{LogID: "l2", AdminID: "adm-2", Action: "x"})

	// The filter asks for someone else's logs; the engine overrides it.
	page, err := env.engine.GetAdminActionLog("adm-1", repository.ActionLogFilter{AdminID: "adm-2"})
	if err != nil {
		t.Fatalf("action log: %v", err)
	}
	if page.Total != 1 || page.Logs[0].AdminID != "adm-1" {
		t.Errorf("page = %+v, want only adm-1 entries", page)
	}
}

func TestGetDashboard(t *testing.T) {
	now := time.Now()
	a := underReview("sub-1", testToken, now)
	b := underReview("sub-2", otherToken, now)
	b.Status = models.StatusPublished
	env := newAdminTestEnv(now, a, b)

	snapshot, err := env.engine.GetDashboard("adm-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if snapshot.StatusCounts[models.StatusUnderReview] != 1 {
		t.Errorf("under review count = %d", snapshot.StatusCounts[models.StatusUnderReview])
	}
	if snapshot.StatusCounts[models.StatusPublished] != 1 {
		t.Errorf("published count = %d", snapshot.StatusCounts[models.StatusPublished])
	}
}

func TestFullReviewCycle(t *testing.T) {
	now := time.Now()
	sub := draftSubmission("sub-1", testToken, now.AddDate(0, 0, 20))
	env := newAdminTestEnv(now, sub)
	author, _ := newTestSubmissionService(env.subs, env.feedback, env.notifier, now)

	// Author submits, admin requests changes, author resubmits, admin
	// approves and publishes.
	submitted, err := author.SubmitForReview(testToken, sub.AuthorEmail)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := env.engine.SendFeedback("sub-1", "adm-1", "Ana", "A conclusão precisa de revisão."); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	resubmitted, err := author.SubmitForReview(submitted.Token, sub.AuthorEmail)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.Status != models.StatusUnderReview {
		t.Fatalf("status after resubmit = %s", resubmitted.Status)
	}

	if _, err := env.engine.ReviewSubmission("sub-1", "adm-1", "Ana", models.DecisionApproved, "", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	result := env.engine.PublishSubmission("sub-1", "adm-1", PublishRequest{})
	if !result.Success {
		t.Fatalf("publish: %s", result.Error)
	}

	final, _ := env.subs.ByID("sub-1")
	if final.Status != models.StatusPublished {
		t.Errorf("final status = %s, want PUBLISHED", final.Status)
	}
	rows, _ := env.feedback.BySubmission("sub-1")
	if rows[0].Status != models.FeedbackResolved {
		t.Errorf("feedback status = %s, want RESOLVED after approval", rows[0].Status)
	}
}
