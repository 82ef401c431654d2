package models

import "testing"

func TestNewOffsetPage_PageMath(t *testing.T) {
	rows := make([]*Condo, 5)
	for i := range rows {
		rows[i] = &Condo{}
	}

	// 25 rows total, page size 10, last page holds 5.
	page := NewOffsetPage(rows, 25, 3, 10)

	if page.Page != 3 {
		t.Fatalf("expected page 3, got %d", page.Page)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", page.TotalPages)
	}
	if page.HasNext {
		t.Fatalf("last page must not report hasNext")
	}
	if len(page.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(page.Rows))
	}
}

func TestNewOffsetPage_HasNextOnMiddlePage(t *testing.T) {
	rows := make([]*Condo, 10)
	for i := range rows {
		rows[i] = &Condo{}
	}

	page := NewOffsetPage(rows, 25, 2, 10)
	if !page.HasNext {
		t.Fatalf("middle page must report hasNext")
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", page.TotalPages)
	}
}

func TestNewOffsetPage_EmptyResult(t *testing.T) {
	page := NewOffsetPage[Condo](nil, 0, 1, 10)
	if page.Rows == nil {
		t.Fatalf("rows must be an empty slice, not nil")
	}
	if page.TotalPages != 0 || page.HasNext {
		t.Fatalf("empty result expected 0 pages and no next, got pages=%d hasNext=%v", page.TotalPages, page.HasNext)
	}
}

func TestNormalizePage_ClampsToOne(t *testing.T) {
	for _, in := range []int{-5, 0} {
		if got := NormalizePage(in); got != 1 {
			t.Fatalf("NormalizePage(%d) expected 1, got %d", in, got)
		}
	}
	if got := NormalizePage(7); got != 7 {
		t.Fatalf("NormalizePage(7) expected 7, got %d", got)
	}
}

func TestPageOffset(t *testing.T) {
	if got := PageOffset(1, 10); got != 0 {
		t.Fatalf("PageOffset(1, 10) expected 0, got %d", got)
	}
	if got := PageOffset(3, 10); got != 20 {
		t.Fatalf("PageOffset(3, 10) expected 20, got %d", got)
	}
}
