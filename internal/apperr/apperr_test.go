package apperr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := New(KindCache, "cache.save", "write failed", io.ErrShortWrite)
	if !errors.Is(err, ErrCache) {
		t.Error("expected errors.Is(err, ErrCache)")
	}
	if errors.Is(err, ErrParse) {
		t.Error("cache error should not match ErrParse")
	}
	if !errors.Is(err, io.ErrShortWrite) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindParse, "tree.file", "invalid frontmatter", errors.New("title is required"))
	want := "tree.file: invalid frontmatter: title is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := Newf(KindNotFound, "", "no %s", "doc").Error(); got != "not_found: no doc" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(KindDuplicate, "", "dup", nil))
	if k := KindOf(wrapped); k != KindDuplicate {
		t.Errorf("KindOf(wrapped) = %q, want duplicate", k)
	}
	if k := KindOf(fmt.Errorf("x: %w", ErrNotFound)); k != KindNotFound {
		t.Errorf("KindOf(sentinel) = %q, want not_found", k)
	}
	if k := KindOf(errors.New("plain")); k != KindInternal {
		t.Errorf("KindOf(plain) = %q, want internal", k)
	}
}

func TestKindOf_SeveralSentinelsIsStable(t *testing.T) {
	err := errors.Join(ErrCache, ErrNotFound, ErrParse)
	for range 50 {
		if k := KindOf(err); k != KindNotFound {
			t.Fatalf("KindOf = %q, want not_found", k)
		}
	}
	if k := KindOf(fmt.Errorf("%w: %w", ErrCache, ErrParse)); k != KindParse {
		t.Errorf("KindOf = %q, want parse", k)
	}
}

func TestReporter_RingKeepsMostRecent(t *testing.T) {
	r := NewReporter(3, nil)
	for i := range 5 {
		r.Report(Newf(KindResolution, "", "miss %d", i))
	}
	recent := r.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("len(recent) = %d, want 3", len(recent))
	}
	for i, want := range []string{"miss 4", "miss 3", "miss 2"} {
		if !strings.HasSuffix(recent[i].Message, want) {
			t.Errorf("recent[%d] = %q, want suffix %q", i, recent[i].Message, want)
		}
	}
	if c := r.Counts()[KindResolution]; c != 5 {
		t.Errorf("count = %d, want 5", c)
	}
}

func TestReporter_RecentLimitAndIDs(t *testing.T) {
	r := NewReporter(10, nil)
	r.Report(New(KindCache, "cache.load", "boom", nil))
	r.Report(New(KindParse, "tree.file", "bad yaml", nil))
	r.Report(nil)

	recent := r.Recent(1)
	if len(recent) != 1 || recent[0].Kind != KindParse {
		t.Fatalf("recent = %+v, want one parse report", recent)
	}
	if recent[0].ID == "" || recent[0].Op != "tree.file" {
		t.Errorf("report missing id/op: %+v", recent[0])
	}
	all := r.Recent(0)
	if len(all) != 2 || all[0].ID == all[1].ID {
		t.Errorf("expected two distinct reports, got %+v", all)
	}
}

func TestReporter_Reset(t *testing.T) {
	r := NewReporter(2, nil)
	r.Report(ErrNotFound)
	r.Reset()
	if len(r.Recent(0)) != 0 {
		t.Error("recent should be empty after reset")
	}
	if len(r.Counts()) != 0 {
		t.Error("counts should be empty after reset")
	}
}

func TestReporter_NilSafe(t *testing.T) {
	var r *Reporter
	r.Report(ErrCache)
}
