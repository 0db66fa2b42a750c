package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"yt-batch-archiver/internal/model"
)

func newTestLedger(t *testing.T, content string) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "download.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(path, nil)
}

func testID(n int) string {
	return fmt.Sprintf("vid%08d", n)
}

func TestReadAll_MissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "absent.csv"), nil)
	if _, err := l.ReadAll(); !errors.Is(err, ErrLedgerMissing) {
		t.Fatalf("expected ErrLedgerMissing, got %v", err)
	}
}

func TestReadAll_DefaultsEmptyStatusToPending(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId,status\nvid00000001,chan1,\nvid00000002,chan1,done\n")

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Status != model.StatusPending {
		t.Fatalf("empty status should read as pending, got %q", items[0].Status)
	}
	if items[1].Status != model.StatusDone {
		t.Fatalf("expected done, got %q", items[1].Status)
	}
}

func TestUpdateStatus_FindsRowAndPersists(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId,status\nvid00000001,chan1,pending\n")

	found, err := l.UpdateStatus("vid00000001", model.StatusInProgress)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatalf("expected row to be found")
	}

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Status != model.StatusInProgress {
		t.Fatalf("status not persisted, got %q", items[0].Status)
	}
}

func TestUpdateStatus_MissingRowIsNoOp(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId,status\nvid00000001,chan1,pending\n")

	found, err := l.UpdateStatus("nothere0000", model.StatusDone)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatalf("expected no row to match")
	}

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Status != model.StatusPending {
		t.Fatalf("no-op update must not touch other rows, got %q", items[0].Status)
	}
}

func TestUpdateStatus_ConcurrentDistinctIDs(t *testing.T) {
	const n = 20
	var sb strings.Builder
	sb.WriteString("videoId,channelId,status\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%s,chan1,pending\n", testID(i))
	}
	l := newTestLedger(t, sb.String())

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			found, err := l.UpdateStatus(testID(i), model.StatusDone)
			if err != nil {
				errs <- err
				return
			}
			if !found {
				errs <- fmt.Errorf("id %s not found", testID(i))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range items {
		if item.Status != model.StatusDone {
			t.Fatalf("lost update for %s: status %q", item.VideoID, item.Status)
		}
	}
}

func TestLedger_PreservesUnknownColumns(t *testing.T) {
	l := newTestLedger(t, "videoId,title,channelId,views,status\nvid00000001,First Video,chan1,123,pending\n")

	if _, err := l.UpdateStatus("vid00000001", model.StatusDone); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"title", "First Video", "views", "123", "done"} {
		if !strings.Contains(got, want) {
			t.Fatalf("rewrite dropped %q:\n%s", want, got)
		}
	}
}

func TestLedger_AppendsMissingStatusColumn(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId\nvid00000001,chan1\n")

	found, err := l.UpdateStatus("vid00000001", model.StatusDone)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatalf("expected row to be found")
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "status") || !strings.Contains(string(data), "done") {
		t.Fatalf("status column not appended:\n%s", string(data))
	}
}

func TestModifyAll_CountsChangedRows(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId,status\nvid00000001,chan1,pending\nvid00000002,chan1,done\nvid00000003,chan2,pending\n")

	changed, err := l.ModifyAll(func(item model.WorkItem) model.WorkItem {
		if item.Status == model.StatusPending {
			item.Status = model.StatusDone
		}
		return item
	})
	if err != nil {
		t.Fatal(err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 changed rows, got %d", changed)
	}

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range items {
		if item.Status != model.StatusDone {
			t.Fatalf("expected all done, got %q for %s", item.Status, item.VideoID)
		}
	}
}

func TestRemoveIf_DropsMatchingRows(t *testing.T) {
	l := newTestLedger(t, "videoId,channelId,status\nvid00000001,chan1,pending\nbad id,chan1,pending\n")

	removed, err := l.RemoveIf(func(item model.WorkItem) bool {
		return !model.ValidVideoID(item.VideoID)
	})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed row, got %d", removed)
	}

	items, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].VideoID != "vid00000001" {
		t.Fatalf("unexpected remaining rows: %+v", items)
	}
}
