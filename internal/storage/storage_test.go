package storage_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/storage"
)

func testSnapshot() monitor.Snapshot {
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	resolved := created.Add(10 * time.Minute)

	return monitor.Snapshot{
		Endpoints: []monitor.Endpoint{{
			ID:        "web",
			Name:      "web server",
			Kind:      monitor.KindHTTP,
			Enabled:   true,
			URL:       "https://example.com",
			CreatedAt: created,
			UpdatedAt: created,
		}},
		Statuses: []monitor.Status{{
			EndpointID:       "web",
			Current:          monitor.StatusUp,
			TotalChecks:      3,
			TotalSuccesses:   2,
			ConsecutiveFails: 0,
			LastCheckedAt:    created.Add(3 * time.Minute),
		}},
		Incidents: []monitor.Incident{{
			ID:         "inc-1",
			EndpointID: "web",
			Status:     monitor.IncidentResolved,
			StartedAt:  created,
			ResolvedAt: resolved,
			DurationMS: 600000,
			Updates: []monitor.IncidentUpdate{
				{Time: resolved, Message: "resolved automatically: endpoint recovered"},
			},
		}},
		Alerts: []monitor.Alert{{
			ID:         "al-1",
			EndpointID: "web",
			Severity:   monitor.SeverityCritical,
			Status:     monitor.AlertResolved,
			Message:    "connection refused",
			CreatedAt:  created,
			ResolvedAt: resolved,
		}},
		Contacts: []monitor.Contact{{
			ID:           "ops",
			Name:         "on call",
			Email:        "ops@example.com",
			EmailEnabled: true,
			NotifyOnDown: true,
			CreatedAt:    created,
			UpdatedAt:    created,
		}},
		Groups: []monitor.ContactGroup{{
			ID:         "night",
			Name:       "night shift",
			ContactIDs: []string{"ops"},
			CreatedAt:  created,
			UpdatedAt:  created,
		}},
		Settings: monitor.DefaultSettings(),
	}
}

func TestFile_roundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	f, err := storage.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open: %s", err)
	}

	want := testSnapshot()
	f.Save(want)

	if err := f.Close(); err != nil {
		t.Fatalf("failed to close: %s", err)
	}

	got, err := storage.Load(path)
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loaded snapshot differs:\n%s", diff)
	}
}

func TestFile_lastSaveWins(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	f, err := storage.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open: %s", err)
	}

	snap := testSnapshot()
	for i := 0; i < 50; i++ {
		snap.Settings.FailureThreshold = i + 1
		f.Save(snap)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close: %s", err)
	}

	got, err := storage.Load(path)
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}
	if got.Settings.FailureThreshold != 50 {
		t.Errorf("expected the newest snapshot on disk but threshold is %d", got.Settings.FailureThreshold)
	}
	if !f.Healthy() {
		t.Errorf("expected a healthy file but got error %s", f.Err())
	}
}

func TestLoad_missingFileIsEmptyState(t *testing.T) {
	t.Parallel()

	got, err := storage.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("a missing file should not be an error but got %s", err)
	}
	if diff := cmp.Diff(monitor.Snapshot{Settings: monitor.DefaultSettings()}, got); diff != "" {
		t.Errorf("expected the default empty state:\n%s", diff)
	}
}

func TestLoad_corruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to prepare file: %s", err)
	}

	_, err := storage.Load(path)
	if err == nil {
		t.Fatalf("expected an error for a corrupt file")
	}
	if !errors.Is(err, argerr.ErrPersistence) {
		t.Errorf("expected a persistence error but got %#v", err)
	}
}

func TestLoad_normalizesSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	raw := fmt.Sprintf(`{"settings": {"failure_threshold": %d}}`, -3)
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to prepare file: %s", err)
	}

	got, err := storage.Load(path)
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}
	if got.Settings.FailureThreshold != 1 {
		t.Errorf("expected the threshold clamped to 1 but got %d", got.Settings.FailureThreshold)
	}
}

func TestOpen_unwritablePath(t *testing.T) {
	t.Parallel()

	_, err := storage.Open(filepath.Join(t.TempDir(), "missing-dir", "state.json"), zap.NewNop())
	if err == nil {
		t.Fatalf("expected an error for a missing parent directory")
	}
	if !errors.Is(err, argerr.ErrPersistence) {
		t.Errorf("expected a persistence error but got %#v", err)
	}
}
