package services

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/llm/resolver"
	"github.com/DickShmiggleTM/RepoFusion/internal/tests/mocks"
)

func newTestMergeService() *mergeService {
	svc := NewMergeService(
		resolver.New(nil, resolver.Options{Logger: zerolog.Nop()}),
		NewSettingsService(nil, zerolog.Nop()),
		&mocks.MergeSessionRepositoryMock{},
		zerolog.Nop(),
	)
	return svc.(*mergeService)
}

func TestValidateRepositoryURLs(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		wantLen int
		wantErr bool
	}{
		{"single https url", []string{"https://github.com/a/b"}, 1, false},
		{"trims and drops blanks", []string{" https://github.com/a/b ", "", "  "}, 1, false},
		{"all blank", []string{"", "   "}, 0, true},
		{"nil input", nil, 0, true},
		{"rejects non-http scheme", []string{"git@github.com:a/b.git"}, 0, true},
		{"rejects ftp", []string{"ftp://example.com/repo"}, 0, true},
		{"rejects missing host", []string{"https:///a/b"}, 0, true},
		{"accepts ten", manyURLs(10), 10, false},
		{"rejects eleven", manyURLs(11), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls, err := validateRepositoryURLs(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", urls)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(urls) != tt.wantLen {
				t.Fatalf("got %d urls, want %d", len(urls), tt.wantLen)
			}
		})
	}
}

func manyURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://github.com/org/repo"
	}
	return urls
}

func TestSequenceGuardDiscardsStaleRequest(t *testing.T) {
	svc := newTestMergeService()

	first := svc.begin("merge")
	second := svc.begin("merge")

	if svc.finish("merge", first) {
		t.Fatal("superseded request must not be current")
	}
	if !svc.finish("merge", second) {
		t.Fatal("latest request must still be current")
	}
}

func TestSequenceGuardSlotsAreIndependent(t *testing.T) {
	svc := newTestMergeService()

	mergeSeq := svc.begin("merge")
	recommendSeq := svc.begin("recommend")

	if !svc.finish("merge", mergeSeq) {
		t.Fatal("merge slot should be unaffected by the recommend slot")
	}
	if !svc.finish("recommend", recommendSeq) {
		t.Fatal("recommend slot should be unaffected by the merge slot")
	}
}

func TestBusyTracksInFlightWork(t *testing.T) {
	svc := newTestMergeService()

	if svc.Busy() {
		t.Fatal("fresh service must not be busy")
	}

	seq := svc.begin("merge")
	if !svc.Busy() {
		t.Fatal("service with in-flight work must report busy")
	}

	svc.finish("merge", seq)
	if svc.Busy() {
		t.Fatal("service must be idle after the work finishes")
	}
}

func TestMergeRejectsInvalidInputBeforeAnyWork(t *testing.T) {
	svc := newTestMergeService()
	if _, err := svc.Merge(nil, "Go", ""); err == nil {
		t.Fatal("expected validation error")
	}
	if svc.Busy() {
		t.Fatal("rejected input must not leave the service busy")
	}
}
