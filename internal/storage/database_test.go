package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "favorites.db"))
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testFavorites(t *testing.T, favs Favorites) {
	t.Helper()

	list, err := favs.ListFavorites()
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}

	for _, name := range []string{"Lima", "Quito", " Bogota "} {
		added, err := favs.AddFavorite(name)
		if err != nil {
			t.Fatalf("AddFavorite(%q) failed: %v", name, err)
		}
		if !added {
			t.Errorf("AddFavorite(%q) = false, want true", name)
		}
	}

	added, err := favs.AddFavorite("Quito")
	if err != nil {
		t.Fatalf("AddFavorite duplicate failed: %v", err)
	}
	if added {
		t.Error("duplicate AddFavorite returned true")
	}

	if _, err := favs.AddFavorite("   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name err = %v, want ErrEmptyName", err)
	}

	list, _ = favs.ListFavorites()
	if want := []string{"Lima", "Quito", "Bogota"}; !reflect.DeepEqual(list, want) {
		t.Errorf("list = %v, want %v", list, want)
	}

	removed, err := favs.RemoveFavorite("Lima")
	if err != nil || !removed {
		t.Fatalf("RemoveFavorite = %v, %v", removed, err)
	}
	if removed, _ := favs.RemoveFavorite("Lima"); removed {
		t.Error("second RemoveFavorite returned true")
	}

	if added, err := favs.AddFavorite("Lima"); err != nil || !added {
		t.Fatalf("re-adding removed city = %v, %v", added, err)
	}

	list, _ = favs.ListFavorites()
	if want := []string{"Quito", "Bogota", "Lima"}; !reflect.DeepEqual(list, want) {
		t.Errorf("list = %v, want %v", list, want)
	}
}

func TestDatabaseFavorites(t *testing.T) {
	testFavorites(t, newTestDatabase(t))
}

func TestMemoryFavorites(t *testing.T) {
	testFavorites(t, NewMemoryFavorites())
}

func TestDatabasePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.db")

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	db.AddFavorite("Paris")
	db.AddFavorite("Rome")
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	list, err := db.ListFavorites()
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if want := []string{"Paris", "Rome"}; !reflect.DeepEqual(list, want) {
		t.Errorf("list = %v, want %v", list, want)
	}
}
