package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/moneyshare/internal/idgen"
	"github.com/mmynk/moneyshare/internal/models"
	"github.com/mmynk/moneyshare/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "moneyshare-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get on a missing key", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("Expected missing key to report ok=false")
		}
	})

	t.Run("Set then Get", func(t *testing.T) {
		if err := store.Set(ctx, "k", "v1"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, ok, err := store.Get(ctx, "k")
		if err != nil || !ok || got != "v1" {
			t.Fatalf("Get = %q, %v, %v; want v1", got, ok, err)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		if err := store.Set(ctx, "k", "v2"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, _, _ := store.Get(ctx, "k")
		if got != "v2" {
			t.Errorf("Get = %q, want v2", got)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.Remove(ctx, "k"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if _, ok, _ := store.Get(ctx, "k"); ok {
			t.Error("Expected key to be gone")
		}
		if err := store.Remove(ctx, "k"); err != nil {
			t.Errorf("Removing an absent key should succeed, got %v", err)
		}
	})
}

func TestBillStoreOnSQLite(t *testing.T) {
	kv := newTestStore(t)
	bills := storage.NewBillStore(kv, storage.WithIDGenerator(idgen.NewSequence(1000)))
	ctx := context.Background()

	parent, err := bills.Create(ctx, models.Bill{
		Mode:         models.ModeNormal,
		Name:         "Da Lat trip",
		Participants: []string{"An", "Binh"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if parent.ID != 1000 {
		t.Errorf("ID = %d, want 1000", parent.ID)
	}
	if parent.Date == "" {
		t.Error("Expected date to be stamped")
	}

	sub, err := bills.Create(ctx, models.Bill{
		Mode:      models.ModeFood,
		Name:      "Night market",
		IsSubBill: true,
		Expenses:  []models.Expense{{Name: "Banh trang nuong", Amount: 25000, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("Create sub-bill failed: %v", err)
	}

	parent, err = bills.Update(ctx, parent.ID, func(b models.Bill) (models.Bill, error) {
		return b.WithExpense(models.LinkingExpense(sub, "An"))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	top, err := bills.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(top) != 1 || top[0].ID != parent.ID {
		t.Errorf("List(false) = %v, want only the parent", top)
	}

	if err := bills.Delete(ctx, parent.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	all, err := bills.List(ctx, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected parent and sub-bill to be deleted, got %d bills", len(all))
	}
}
