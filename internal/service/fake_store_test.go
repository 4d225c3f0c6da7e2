package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inboxtriage/backend/internal/db"
	"github.com/inboxtriage/backend/internal/models"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	mu          sync.Mutex
	emails      map[string]models.Email
	byMessageID map[string]string
	responses   map[string][]models.Response
	analytics   map[string]models.DailyAnalytics
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emails:      map[string]models.Email{},
		byMessageID: map[string]string{},
		responses:   map[string][]models.Response{},
		analytics:   map[string]models.DailyAnalytics{},
	}
}

func (f *fakeStore) CreateEmail(ctx context.Context, e models.Email) (models.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byMessageID[e.MessageID]; ok {
		return models.Email{}, db.ErrDuplicateEmail
	}
	f.nextID++
	e.ID = fmt.Sprintf("email-%d", f.nextID)
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	f.emails[e.ID] = e
	f.byMessageID[e.MessageID] = e.ID
	return e, nil
}

func (f *fakeStore) GetEmailByID(ctx context.Context, id string) (models.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.emails[id]
	if !ok {
		return models.Email{}, pgx.ErrNoRows
	}
	return e, nil
}

func (f *fakeStore) ListEmailsReceivedBetween(ctx context.Context, from, to time.Time) ([]models.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Email
	for _, e := range f.emails {
		if !e.ReceivedAt.Before(from) && e.ReceivedAt.Before(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (f *fakeStore) ListUnrespondedUrgent(ctx context.Context, limit int) ([]models.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Email
	for _, e := range f.emails {
		if e.Priority != models.PriorityUrgent || e.IsResolved {
			continue
		}
		if len(f.responses[e.ID]) > 0 {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) EmailExistsByContent(ctx context.Context, sender, subject, body string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.emails {
		if e.Sender == sender && e.Subject == subject && e.Body == body {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateResponse(ctx context.Context, r models.Response) (models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = fmt.Sprintf("resp-%d", f.nextID)
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	f.responses[r.EmailID] = append(f.responses[r.EmailID], r)
	return r, nil
}

func (f *fakeStore) ListResponsesByEmail(ctx context.Context, emailID string) ([]models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.Response(nil), f.responses[emailID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (f *fakeStore) UpsertDailyAnalytics(ctx context.Context, a models.DailyAnalytics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analytics[a.Date.Format("2006-01-02")] = a
	return nil
}

// addEmail inserts directly, bypassing the pipeline.
func (f *fakeStore) addEmail(e models.Email) models.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if e.ID == "" {
		e.ID = fmt.Sprintf("email-%d", f.nextID)
	}
	if e.MessageID == "" {
		e.MessageID = "msg-" + e.ID
	}
	f.emails[e.ID] = e
	f.byMessageID[e.MessageID] = e.ID
	return e
}

func (f *fakeStore) responseCount(emailID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responses[emailID])
}
