// Package workers holds background jobs that run alongside the HTTP server.
package workers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"questify/metrics"
	"questify/models"
	"questify/utils"
)

const DefaultProfilesPath = "/api/v1/public/profiles"

// ProfileChangesResponse is the body served by the account service.
type ProfileChangesResponse struct {
	Users []models.RemoteProfile `json:"users"`
}

// ProfileSyncer applies a batch of remote profiles locally.
type ProfileSyncer interface {
	Sync(ctx context.Context, remote []models.RemoteProfile) (int, error)
}

// ProfileSyncWorker mirrors usernames and avatars from the account service
// into local profiles.
type ProfileSyncWorker struct {
	users        ProfileSyncer
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
	metrics      *metrics.Recorder

	// since is the newest remote updated_at applied so far.
	since time.Time
}

func NewProfileSyncWorker(users ProfileSyncer, baseURL, serviceToken string, interval time.Duration, rec *metrics.Recorder) *ProfileSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProfileSyncWorker{
		users:        users,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: DefaultProfilesPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
		metrics:      rec,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Printf("🔁 [SYNC] Starting profile sync worker (every %s)", w.interval)
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial pass backfills everything.
	if err := w.syncBatch(ctx); err != nil {
		log.Printf("⚠️  [SYNC] Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx); err != nil {
				log.Printf("❌ [SYNC] Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️  [SYNC] Profile sync worker stopped")
			return
		}
	}
}

func (w *ProfileSyncWorker) endpoint() (string, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid profile sync URL %q", w.baseURL)
	}
	u := base.JoinPath(w.endpointPath)
	q := u.Query()
	q.Set("since", w.since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// syncBatch fetches profiles changed since the last applied batch and
// upserts them. The cursor only advances when the whole batch was applied.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context) error {
	target, err := w.endpoint()
	if err != nil {
		return err
	}
	log.Printf("[SYNC] ➡️  GET %s", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrapf(err, "build request to %s", target)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request profile changes")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("account service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes ProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return errors.Wrap(err, "decode profile changes")
	}
	if len(changes.Users) == 0 {
		log.Printf("[SYNC] ✅ No profile changes since %s", w.since.UTC().Format(time.RFC3339))
		return nil
	}

	n, err := w.users.Sync(ctx, changes.Users)
	w.metrics.ProfilesSynced(n)
	if err != nil {
		return errors.Wrapf(err, "apply profile changes (%d of %d applied)", n, len(changes.Users))
	}

	for _, u := range changes.Users {
		if u.UpdatedAt.After(w.since) {
			w.since = u.UpdatedAt
		}
	}
	log.Printf("[SYNC] 📥 Applied %d of %d profile(s)", n, len(changes.Users))
	return nil
}
