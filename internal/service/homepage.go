package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
	"github.com/ideai-platform/sitetree/internal/port/queue"
)

// HomepageService runs the deferred setup of a freshly provisioned site. The
// job arrives at-least-once over the queue, so Setup is idempotent: it
// derives the title from the nested path and only writes when it differs.
type HomepageService struct {
	store database.Store
	queue queue.Queue
	log   *slog.Logger
}

func NewHomepageService(store database.Store, q queue.Queue, log *slog.Logger) *HomepageService {
	return &HomepageService{store: store, queue: q, log: log}
}

// StartSubscriber begins consuming homepage jobs. The returned cancel stops
// the subscription.
func (h *HomepageService) StartSubscriber(ctx context.Context) (func(), error) {
	return h.queue.Subscribe(ctx, queue.SubjectHomepageSetup, h.handle)
}

func (h *HomepageService) handle(ctx context.Context, subject string, data []byte) error {
	var payload queue.HomepageSetupPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// A bad payload will never parse on redelivery either.
		h.log.Error("homepage payload unreadable", "subject", subject, "error", err)
		return nil
	}
	return h.Setup(ctx, payload)
}

// Setup applies the derived display title to the site. A missing site is
// terminal (deleted between provisioning and job delivery), any other store
// error is returned so the message is redelivered.
func (h *HomepageService) Setup(ctx context.Context, payload queue.HomepageSetupPayload) error {
	st, err := h.store.GetSite(ctx, payload.SiteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.log.Warn("homepage job for missing site", "job_id", payload.JobID, "site_id", payload.SiteID)
			return nil
		}
		return fmt.Errorf("load site %d: %w", payload.SiteID, err)
	}

	title := site.DisplayName(site.Normalize(payload.Path))
	if st.Title == title {
		return nil
	}
	if err := h.store.UpdateSiteTitle(ctx, payload.SiteID, title); err != nil {
		return fmt.Errorf("update title for site %d: %w", payload.SiteID, err)
	}
	h.log.Info("homepage configured",
		"job_id", payload.JobID, "site_id", payload.SiteID, "title", title)
	return nil
}
