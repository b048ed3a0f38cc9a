package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"editorial-submission-api/models"
	"editorial-submission-api/repository"
	"editorial-submission-api/storage"
)

// fakeSubmissionRepo is an in-memory SubmissionRepository for service tests.
type fakeSubmissionRepo struct {
	mu         sync.Mutex
	subs       map[string]*models.Submission
	failUpdate error
	failCreate error
}

func newFakeSubmissionRepo(subs ...*models.Submission) *fakeSubmissionRepo {
	r := &fakeSubmissionRepo{subs: make(map[string]*models.Submission)}
	for _, s := range subs {
		cp := *s
		r.subs[s.SubmissionID] = &cp
	}
	return r
}

func (r *fakeSubmissionRepo) ByID(id string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) ByToken(token string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSubmissionRepo) Create(s *models.Submission) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.subs[s.SubmissionID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) Update(id string, fields map[string]any) (*models.Submission, error) {
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			s.Status = v.(models.SubmissionStatus)
		case "token":
			s.Token = v.(string)
		case "title":
			s.Title = v.(string)
		case "summary":
			s.Summary = v.(string)
		case "content":
			s.Content = v.(string)
		case "category":
			s.Category = v.(string)
		case "keywords":
			s.Keywords = v.([]string)
		case "metadata":
			s.Metadata = v.(map[string]any)
		case "expires_at":
			s.ExpiresAt = v.(time.Time)
		case "updated_at":
			s.UpdatedAt = v.(time.Time)
		case "submitted_at":
			t := v.(time.Time)
			s.SubmittedAt = &t
		case "reviewed_by":
			rb := v.(string)
			s.ReviewedBy = &rb
		case "reviewed_at":
			t := v.(time.Time)
			s.ReviewedAt = &t
		case "review_notes":
			n := v.(string)
			s.ReviewNotes = &n
		case "rejection_reason":
			rr := v.(string)
			s.RejectionReason = &rr
		case "published_slug":
			slug := v.(string)
			s.PublishedSlug = &slug
		case "published_at":
			t := v.(time.Time)
			s.PublishedAt = &t
		default:
			return nil, fmt.Errorf("fake repo: unknown field %q", k)
		}
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) List(f repository.SubmissionFilter) (*repository.SubmissionPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]models.Submission, 0)
	for _, s := range r.subs {
		// AuthorEmail mirrors the production LIKE '%...%'; the exact variant
		// compares verbatim.
		if f.AuthorEmail != "" && !strings.Contains(s.AuthorEmail, f.AuthorEmail) {
			continue
		}
		if f.AuthorEmailExact != "" && s.AuthorEmail != f.AuthorEmailExact {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				if s.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		rows = append(rows, *s)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SubmissionID < rows[j].SubmissionID
	})
	return &repository.SubmissionPage{
		Rows:     rows,
		Total:    int64(len(rows)),
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

func (r *fakeSubmissionRepo) SearchRanked(query string, limit int) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := make([]models.Submission, 0)
	for _, s := range r.subs {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Summary), q) ||
			strings.Contains(strings.ToLower(s.Content), q) {
			out = append(out, *s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ExpiringWithin(now time.Time, days int) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.AddDate(0, 0, days)
	out := make([]models.Submission, 0)
	for _, s := range r.subs {
		if s.Status.IsTerminal() || s.Status == models.StatusExpired {
			continue
		}
		if s.ExpiresAt.After(now) && s.ExpiresAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *fakeSubmissionRepo) PastExpiry(now time.Time) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Submission, 0)
	for _, s := range r.subs {
		if s.Status.IsTerminal() || s.Status == models.StatusExpired {
			continue
		}
		if now.After(s.ExpiresAt) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) CountByAuthor(email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.subs {
		if s.AuthorEmail == email {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubmissionRepo) StatusCounts() (map[models.SubmissionStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.SubmissionStatus]int64)
	for _, s := range r.subs {
		counts[s.Status]++
	}
	return counts, nil
}

func (r *fakeSubmissionRepo) CategoryCounts() ([]repository.CategoryCount, error) {
	return nil, nil
}

func (r *fakeSubmissionRepo) MonthlyTrend(months int) ([]repository.MonthCount, error) {
	return nil, nil
}

func (r *fakeSubmissionRepo) TopAuthors(limit int) ([]repository.AuthorStat, error) {
	return nil, nil
}

func (r *fakeSubmissionRepo) ReviewTimes() (*repository.ReviewTimeStats, error) {
	return &repository.ReviewTimeStats{}, nil
}

// fakeFeedbackRepo is an in-memory FeedbackRepository.
type fakeFeedbackRepo struct {
	mu   sync.Mutex
	rows []models.AdminFeedback
}

func (r *fakeFeedbackRepo) Create(f *models.AdminFeedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *f)
	return nil
}

func (r *fakeFeedbackRepo) BySubmission(submissionID string) ([]models.AdminFeedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AdminFeedback, 0)
	for _, f := range r.rows {
		if f.SubmissionID == submissionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFeedbackRepo) CountBySubmission(submissionID string) (int64, error) {
	rows, _ := r.BySubmission(submissionID)
	return int64(len(rows)), nil
}

func (r *fakeFeedbackRepo) UpdateStatusBySubmission(submissionID, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].SubmissionID == submissionID && r.rows[i].Status == from {
			r.rows[i].Status = to
		}
	}
	return nil
}

// fakeReviewRepo is an in-memory ReviewRepository.
type fakeReviewRepo struct {
	mu   sync.Mutex
	rows []models.SubmissionReview
}

func (r *fakeReviewRepo) Create(rv *models.SubmissionReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *rv)
	return nil
}

func (r *fakeReviewRepo) BySubmission(submissionID string) ([]models.SubmissionReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SubmissionReview, 0)
	for _, rv := range r.rows {
		if rv.SubmissionID == submissionID {
			out = append(out, rv)
		}
	}
	return out, nil
}

// fakeActionLogRepo is an in-memory ActionLogRepository.
type fakeActionLogRepo struct {
	mu   sync.Mutex
	rows []models.AdminActionLog
}

func (r *fakeActionLogRepo) Create(l *models.AdminActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *l)
	return nil
}

func (r *fakeActionLogRepo) List(f repository.ActionLogFilter) ([]models.AdminActionLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AdminActionLog, 0)
	for _, l := range r.rows {
		if f.AdminID != "" && l.AdminID != f.AdminID {
			continue
		}
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// fakeFileRepo is an in-memory FileRepository. Orphan detection uses the
// linked submission repo, mirroring the production LEFT JOIN.
type fakeFileRepo struct {
	mu         sync.Mutex
	rows       map[string]*models.FileUpload
	subs       *fakeSubmissionRepo
	failCreate error
}

func newFakeFileRepo(subs *fakeSubmissionRepo) *fakeFileRepo {
	return &fakeFileRepo{rows: make(map[string]*models.FileUpload), subs: subs}
}

func (r *fakeFileRepo) Create(f *models.FileUpload) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.rows[f.FileID] = &cp
	return nil
}

func (r *fakeFileRepo) ByID(id string) (*models.FileUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) BySubmission(submissionID string) ([]models.FileUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FileUpload, 0)
	for _, f := range r.rows {
		if f.SubmissionID == submissionID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) CountBySubmission(submissionID string) (int64, error) {
	rows, _ := r.BySubmission(submissionID)
	return int64(len(rows)), nil
}

func (r *fakeFileRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeFileRepo) Orphaned() ([]models.FileUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FileUpload, 0)
	for _, f := range r.rows {
		if _, err := r.subs.ByID(f.SubmissionID); err != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

// sentMessage is one notification captured by the recorder.
type sentMessage struct {
	Kind NotificationKind
	To   []string
	Data map[string]string
}

// recorderNotifier captures notifications instead of sending mail.
type recorderNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (n *recorderNotifier) Send(kind NotificationKind, to []string, data map[string]string) error {
	if n.fail != nil {
		return n.fail
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{Kind: kind, To: to, Data: data})
	return nil
}

func (n *recorderNotifier) byKind(kind NotificationKind) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentMessage, 0)
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// fakeStorage is an in-memory media store.
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	failUpload  error
	failDestroy error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(key string, body io.Reader, contentType string, size int64) (*storage.UploadResult, error) {
	if s.failUpload != nil {
		return nil, s.failUpload
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return &storage.UploadResult{
		ProviderID: key,
		URL:        "https://media.test/" + key,
		Bytes:      size,
	}, nil
}

func (s *fakeStorage) Destroy(providerID string) error {
	if s.failDestroy != nil {
		return s.failDestroy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, providerID)
	return nil
}

func (s *fakeStorage) SignedURL(providerID string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://media.test/%s?expires=%d", providerID, int64(ttl.Seconds())), nil
}

// repoBundle assembles fakes into the wiring struct the constructors take.
func fakeRepos(subs *fakeSubmissionRepo, feedback *fakeFeedbackRepo, files *fakeFileRepo) *repository.Repositories {
	return &repository.Repositories{
		Submissions: subs,
		Feedback:    feedback,
		Reviews:     &fakeReviewRepo{},
		ActionLogs:  &fakeActionLogRepo{},
		Files:       files,
	}
}

func draftSubmission(id, token string, expiresAt time.Time) *models.Submission {
	return &models.Submission{
		SubmissionID: id,
		Token:        token,
		Title:        "Ensaios sobre jardins urbanos",
		Summary:      "Um panorama dos jardins comunitários.",
		Content:      "Texto completo do ensaio.",
		Category:     "urbanismo",
		Status:       models.StatusDraft,
		AuthorName:   "Clara Mendes",
		AuthorEmail:  "clara@example.com",
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
		ExpiresAt:    expiresAt,
	}
}
