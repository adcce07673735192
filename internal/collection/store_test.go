package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/store/memory"
)

func newTestStore() (*Store, *memory.Slot) {
	slot := memory.NewSlot()
	return NewStore(slot, logger.New("error", false)), slot
}

func testItem(id string) domain.Item {
	return domain.Item{
		ID:        id,
		URL:       "https://example.com/" + id,
		Title:     "Item " + id,
		Notes:     "",
		DateAdded: "2025-03-14T09:26:53.589Z",
		Hostname:  "example.com",
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestLoadEmpty(t *testing.T) {
	store, _ := newTestStore()

	items, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Load() on empty store = %v, want empty non-nil slice", items)
	}
}

func TestLoadCorruptValueIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "{not json"},
		{"object", `{"id":"1"}`},
		{"wrong element type", `[1,2,3]`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, slot := newTestStore()
			slot.Set([]byte(tt.value))

			items, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v, corrupt data must not surface", err)
			}
			if len(items) != 0 {
				t.Errorf("Load() = %v, want empty", items)
			}
		})
	}
}

func TestAddInsertsAtFront(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if err := store.Add(ctx, testItem(id)); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
		items, _ := store.Load(ctx)
		if items[0].ID != id {
			t.Errorf("after Add(%s) first item is %s", id, items[0].ID)
		}
	}

	items, _ := store.Load(ctx)
	if got := fmt.Sprint(ids(items)); got != "[3 2 1]" {
		t.Errorf("Load() order = %s, want [3 2 1]", got)
	}
}

func TestAddOverwritesCorruptValue(t *testing.T) {
	store, slot := newTestStore()
	slot.Set([]byte("garbage"))

	if err := store.Add(context.Background(), testItem("1")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	items, _ := store.Load(context.Background())
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("Load() = %v, want just the new item", ids(items))
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		_ = store.Add(ctx, testItem(id))
	}

	if err := store.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	once, _ := store.Load(ctx)

	// Idempotent
	if err := store.Delete(ctx, "2"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	twice, _ := store.Load(ctx)

	if got := fmt.Sprint(ids(once)); got != "[3 1]" {
		t.Errorf("after Delete() = %s, want [3 1]", got)
	}
	if fmt.Sprint(ids(once)) != fmt.Sprint(ids(twice)) {
		t.Errorf("Delete() not idempotent: %v then %v", ids(once), ids(twice))
	}
}

func TestDeleteRemovesAllDuplicates(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_ = store.Add(ctx, testItem("dup"))
	_ = store.Add(ctx, testItem("keep"))
	_ = store.Add(ctx, testItem("dup"))

	_ = store.Delete(ctx, "dup")
	items, _ := store.Load(ctx)
	if got := fmt.Sprint(ids(items)); got != "[keep]" {
		t.Errorf("Load() = %s, want [keep]", got)
	}
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_ = store.Add(ctx, testItem("1"))

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	items, _ := store.Load(ctx)
	if len(items) != 1 {
		t.Errorf("Load() = %v, want one item", ids(items))
	}
}

func TestAddDeleteSequences(t *testing.T) {
	type op struct {
		add bool
		id  string
	}

	tests := []struct {
		name string
		ops  []op
		want string
	}{
		{"adds only", []op{{true, "a"}, {true, "b"}}, "[b a]"},
		{"add then delete", []op{{true, "a"}, {false, "a"}}, "[]"},
		{"interleaved", []op{{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"}}, "[c b]"},
		{"delete before add", []op{{false, "a"}, {true, "a"}}, "[a]"},
		{"delete middle", []op{{true, "a"}, {true, "b"}, {true, "c"}, {false, "b"}}, "[c a]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()
			ctx := context.Background()

			for _, o := range tt.ops {
				var err error
				if o.add {
					err = store.Add(ctx, testItem(o.id))
				} else {
					err = store.Delete(ctx, o.id)
				}
				if err != nil {
					t.Fatalf("op %+v error = %v", o, err)
				}
			}

			items, _ := store.Load(ctx)
			if got := fmt.Sprint(ids(items)); got != tt.want {
				t.Errorf("Load() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		src, _ := newTestStore()
		data, err := src.Export(ctx)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("Export() of empty store = %q, want []", data)
		}

		dst, _ := newTestStore()
		n, err := dst.Import(ctx, data)
		if err != nil || n != 0 {
			t.Fatalf("Import() = %d, %v", n, err)
		}
		items, _ := dst.Load(ctx)
		if len(items) != 0 {
			t.Errorf("round trip of empty store produced %v", ids(items))
		}
	})

	t.Run("non-empty", func(t *testing.T) {
		src, _ := newTestStore()
		_ = src.Add(ctx, testItem("1"))
		withNotes := testItem("2")
		withNotes.Notes = "line one\nline <two>"
		_ = src.Add(ctx, withNotes)

		exported, err := src.Export(ctx)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		dst, _ := newTestStore()
		if _, err := dst.Import(ctx, exported); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		again, _ := dst.Export(ctx)
		if !bytes.Equal(exported, again) {
			t.Errorf("round trip changed export:\n%s\nvs\n%s", exported, again)
		}
	})
}

func TestImportRejectsNonArray(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"object", `{"id":"1"}`},
		{"string", `"hello"`},
		{"null", `null`},
		{"empty", ``},
		{"garbage", `not json`},
		{"truncated array", `[{"id":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()
			ctx := context.Background()
			_ = store.Add(ctx, testItem("existing"))

			_, err := store.Import(ctx, []byte(tt.data))
			if !errors.Is(err, ErrInvalidImport) {
				t.Errorf("Import(%q) error = %v, want ErrInvalidImport", tt.data, err)
			}

			items, _ := store.Load(ctx)
			if len(items) != 1 || items[0].ID != "existing" {
				t.Errorf("rejected import mutated the store: %v", ids(items))
			}
		})
	}
}

func TestImportReplacesCollection(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_ = store.Add(ctx, testItem("old"))

	payload, _ := json.Marshal([]domain.Item{testItem("a"), testItem("b")})
	n, err := store.Import(ctx, payload)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}

	items, _ := store.Load(ctx)
	if got := fmt.Sprint(ids(items)); got != "[a b]" {
		t.Errorf("Load() after Import() = %s, want [a b]", got)
	}
}

func TestImportAcceptsAnyArray(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		n       int
		listed  string
		exports string
	}{
		{
			name:    "numbers",
			data:    `[1,2]`,
			n:       2,
			listed:  "[]",
			exports: "[\n  1,\n  2\n]",
		},
		{
			name:    "numeric id",
			data:    `[{"id":1700000000000,"url":"https://example.com","title":"Old","notes":"","dateAdded":"2023-11-14T22:13:20.000Z","hostname":"example.com"}]`,
			n:       1,
			listed:  "[1700000000000]",
			exports: "[\n  {\n    \"id\": 1700000000000,\n    \"url\": \"https://example.com\",\n    \"title\": \"Old\",\n    \"notes\": \"\",\n    \"dateAdded\": \"2023-11-14T22:13:20.000Z\",\n    \"hostname\": \"example.com\"\n  }\n]",
		},
		{
			name:    "unknown fields kept",
			data:    `[{"id":"a","url":"https://example.com","tags":["x"],"pinned":true}]`,
			n:       1,
			listed:  "[a]",
			exports: "[\n  {\n    \"id\": \"a\",\n    \"url\": \"https://example.com\",\n    \"tags\": [\n      \"x\"\n    ],\n    \"pinned\": true\n  }\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()
			ctx := context.Background()

			n, err := store.Import(ctx, []byte(tt.data))
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if n != tt.n {
				t.Errorf("Import() = %d, want %d", n, tt.n)
			}

			items, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := fmt.Sprint(ids(items)); got != tt.listed {
				t.Errorf("Load() ids = %s, want %s", got, tt.listed)
			}

			exported, _ := store.Export(ctx)
			if string(exported) != tt.exports {
				t.Errorf("Export() =\n%s\nwant\n%s", exported, tt.exports)
			}
		})
	}
}

func TestDeleteNumericID(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Import(ctx, []byte(`[{"id":1700000000000,"title":"Old"},{"id":"keep"},42]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if err := store.Delete(ctx, "1700000000000"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	items, _ := store.Load(ctx)
	if got := fmt.Sprint(ids(items)); got != "[keep]" {
		t.Errorf("Load() after Delete() = %s, want [keep]", got)
	}

	// Elements that are not items survive edits.
	exported, _ := store.Export(ctx)
	if !bytes.Contains(exported, []byte("42")) {
		t.Errorf("Export() dropped a non-object element:\n%s", exported)
	}
}

type failingBackend struct{ memory.Slot }

func (f *failingBackend) Get(context.Context) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (f *failingBackend) Update(context.Context, func([]byte) ([]byte, error)) error {
	return errors.New("backend down")
}

func TestBackendErrorsAreReturned(t *testing.T) {
	store := NewStore(&failingBackend{}, logger.New("error", false))
	ctx := context.Background()

	if _, err := store.Load(ctx); err == nil {
		t.Error("Load() should return backend errors")
	}
	if err := store.Add(ctx, testItem("1")); err == nil {
		t.Error("Add() should return backend errors")
	}
	if err := store.Delete(ctx, "1"); err == nil {
		t.Error("Delete() should return backend errors")
	}
}
