package service

import (
	"context"
	"time"

	"github.com/inboxtriage/backend/internal/models"
)

// Store is the slice of the persistence gateway the pipeline services need.
// *db.Store satisfies it; tests substitute an in-memory fake.
type Store interface {
	CreateEmail(ctx context.Context, e models.Email) (models.Email, error)
	GetEmailByID(ctx context.Context, id string) (models.Email, error)
	ListEmailsReceivedBetween(ctx context.Context, from, to time.Time) ([]models.Email, error)
	ListUnrespondedUrgent(ctx context.Context, limit int) ([]models.Email, error)
	EmailExistsByContent(ctx context.Context, sender, subject, body string) (bool, error)

	CreateResponse(ctx context.Context, r models.Response) (models.Response, error)
	ListResponsesByEmail(ctx context.Context, emailID string) ([]models.Response, error)

	UpsertDailyAnalytics(ctx context.Context, a models.DailyAnalytics) error
}
