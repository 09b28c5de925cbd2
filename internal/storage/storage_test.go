package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/models"
)

func TestScanStore(t *testing.T) {
	store := New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	store.Set(&models.ScanSession{ID: "old", CreatedAt: base})
	store.Set(&models.ScanSession{ID: "new", CreatedAt: base.Add(time.Minute)})
	store.Set(&models.ScanSession{ID: "mid", CreatedAt: base.Add(30 * time.Second)})

	if _, ok := store.Get("mid"); !ok {
		t.Fatal("expected stored session")
	}
	if _, ok := store.Get("nope"); ok {
		t.Fatal("unexpected session")
	}

	list := store.List()
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	if fmt.Sprint(ids) != "[new mid old]" {
		t.Errorf("List order = %v, want newest first", ids)
	}

	updated, ok := store.Update("old", func(s *models.ScanSession) { s.Confirmed = true })
	if !ok || !updated.Confirmed {
		t.Errorf("Update = %+v, %v", updated, ok)
	}
	if _, ok := store.Update("nope", func(*models.ScanSession) {}); ok {
		t.Error("Update of unknown session should report false")
	}

	if !store.Delete("old") {
		t.Error("Delete should report an existing session")
	}
	if store.Delete("old") {
		t.Error("second Delete should report false")
	}
	if len(store.List()) != 2 {
		t.Errorf("expected 2 sessions left")
	}
}

func TestScanStoreConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("scan-%d", i)
			store.Set(&models.ScanSession{ID: id, CreatedAt: time.Now()})
			store.Get(id)
			store.List()
		}()
	}
	wg.Wait()

	if got := len(store.List()); got != 50 {
		t.Errorf("stored %d sessions, want 50", got)
	}
}
