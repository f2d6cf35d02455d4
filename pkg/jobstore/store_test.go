package jobstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(time.Hour)
	t.Cleanup(s.Close)
	return s
}

func TestCreateInitializesPendingJob(t *testing.T) {
	s := newTestStore(t)

	job := s.Create("contract.pdf", "application/pdf")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "contract.pdf", job.FileName)
	assert.Equal(t, "application/pdf", job.FileType)
	assert.Equal(t, StatusPending, job.Status)
	assert.Empty(t, job.WorkflowID)
	assert.Nil(t, job.SignedDocument)
	assert.Empty(t, job.ErrorMessage)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestSetWorkflowIsWriteOnce(t *testing.T) {
	s := newTestStore(t)
	job := s.Create("contract.pdf", "application/pdf")

	s.SetWorkflow(job.ID, "wf-1", "created")
	s.SetWorkflow(job.ID, "wf-2", "started")

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, "wf-1", got.WorkflowID, "workflow id must never change once set")
	assert.Equal(t, "started", got.WorkflowStatus, "status still refreshes")
}

func TestMutationsOnUnknownIDAreSilent(t *testing.T) {
	s := newTestStore(t)

	assert.NotPanics(t, func() {
		s.SetWorkflow("ghost", "wf-1", "created")
		s.SetWorkflowStatus("ghost", "started")
		s.Complete("ghost", SignedArtifact{Data: []byte("x")})
		s.Fail("ghost", "boom")
	})
	assert.Equal(t, 0, s.Len())
}

func TestCompleteStoresArtifactAndDerivesName(t *testing.T) {
	s := newTestStore(t)
	job := s.Create("report.pdf", "application/pdf")

	s.Complete(job.ID, SignedArtifact{Data: []byte("%PDF-signed")})

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, []byte("%PDF-signed"), got.SignedDocument)
	assert.Equal(t, "report-signed.pdf", got.SignedFileName)
	assert.Equal(t, "application/pdf", got.SignedContentType)
	assert.Empty(t, got.ErrorMessage)
}

func TestCompleteKeepsExplicitArtifactMetadata(t *testing.T) {
	s := newTestStore(t)
	job := s.Create("report.pdf", "application/pdf")

	s.Complete(job.ID, SignedArtifact{
		Data:        []byte("bytes"),
		FileName:    "from-provider.pdf",
		ContentType: "application/octet-stream",
	})

	got, _ := s.Get(job.ID)
	assert.Equal(t, "from-provider.pdf", got.SignedFileName)
	assert.Equal(t, "application/octet-stream", got.SignedContentType)
}

func TestFailRecordsMessage(t *testing.T) {
	s := newTestStore(t)
	job := s.Create("report.pdf", "application/pdf")

	s.Fail(job.ID, "workflow refused by signer")

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "workflow refused by signer", got.ErrorMessage)
	assert.Nil(t, got.SignedDocument)
}

func TestTerminalStatusIsSticky(t *testing.T) {
	tests := []struct {
		name      string
		terminate func(s *Store, id string)
		want      Status
	}{
		{
			name:      "completed stays completed",
			terminate: func(s *Store, id string) { s.Complete(id, SignedArtifact{Data: []byte("x")}) },
			want:      StatusCompleted,
		},
		{
			name:      "error stays error",
			terminate: func(s *Store, id string) { s.Fail(id, "boom") },
			want:      StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			job := s.Create("doc.pdf", "application/pdf")
			tt.terminate(s, job.ID)

			// None of these may move the job out of its terminal state.
			s.Fail(job.ID, "late failure")
			s.Complete(job.ID, SignedArtifact{Data: []byte("late")})
			s.SetWorkflowStatus(job.ID, "started")
			s.SetWorkflow(job.ID, "wf-late", "created")

			got, ok := s.Get(job.ID)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Status)
			if tt.want == StatusCompleted {
				assert.Equal(t, []byte("x"), got.SignedDocument)
				assert.Empty(t, got.ErrorMessage)
			} else {
				assert.Equal(t, "boom", got.ErrorMessage)
				assert.Nil(t, got.SignedDocument)
			}
		})
	}
}

func TestStatusInvariants(t *testing.T) {
	s := newTestStore(t)

	pending := s.Create("a.pdf", "application/pdf")
	completed := s.Create("b.pdf", "application/pdf")
	failed := s.Create("c.pdf", "application/pdf")
	s.Complete(completed.ID, SignedArtifact{Data: []byte("x")})
	s.Fail(failed.ID, "boom")

	for _, id := range []string{pending.ID, completed.ID, failed.ID} {
		job, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, job.Status == StatusCompleted, job.SignedDocument != nil,
			"signed document present iff completed: %s", job.Status)
		assert.Equal(t, job.Status == StatusError, job.ErrorMessage != "",
			"error message present iff error: %s", job.Status)
	}
}

func TestListReturnsCopiesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first := s.Create("first.pdf", "application/pdf")
	time.Sleep(time.Millisecond)
	second := s.Create("second.pdf", "application/pdf")

	jobs := s.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)

	// Mutating the returned slice must not affect the store.
	jobs[0].FileName = "tampered.pdf"
	got, _ := s.Get(second.ID)
	assert.Equal(t, "second.pdf", got.FileName)
}

func TestSignedFileName(t *testing.T) {
	tests := []struct {
		original string
		want     string
	}{
		{"report.pdf", "report-signed.pdf"},
		{"contract.pdf", "contract-signed.pdf"},
		{"README", "README-signed.pdf"},
		{"archive.tar.gz", "archive.tar-signed.gz"},
		{"dotted.name.pdf", "dotted.name-signed.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			assert.Equal(t, tt.want, SignedFileName(tt.original))
		})
	}
}

func TestSweepEvictsIdleJobs(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	stale := s.Create("old.pdf", "application/pdf")
	fresh := s.Create("new.pdf", "application/pdf")

	// Age the stale job past the TTL without touching the fresh one.
	s.mu.Lock()
	s.jobs[stale.ID].UpdatedAt = time.Now().UTC().Add(-2 * time.Minute)
	s.mu.Unlock()

	s.sweep(time.Now().UTC())

	_, ok := s.Get(stale.ID)
	assert.False(t, ok, "stale job should be evicted")
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok, "fresh job should survive")
}

func TestSweeperRunsInBackground(t *testing.T) {
	s := New(20 * time.Millisecond)
	defer s.Close()

	job := s.Create("old.pdf", "application/pdf")
	s.mu.Lock()
	s.jobs[job.ID].UpdatedAt = time.Now().UTC().Add(-time.Hour)
	s.mu.Unlock()

	require.Eventually(t, func() bool {
		_, ok := s.Get(job.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsSweeper(t *testing.T) {
	s := New(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return; sweeper goroutine leaked")
	}

	// Close is idempotent.
	assert.NotPanics(t, s.Close)
}

func TestHooksFireOnLifecycleEvents(t *testing.T) {
	var created, completed, failed int
	s := New(time.Hour, WithHooks(Hooks{
		Created:   func() { created++ },
		Completed: func() { completed++ },
		Failed:    func() { failed++ },
	}))
	defer s.Close()

	a := s.Create("a.pdf", "application/pdf")
	b := s.Create("b.pdf", "application/pdf")
	s.Complete(a.ID, SignedArtifact{Data: []byte("x")})
	s.Fail(b.ID, "boom")

	// No-op mutations must not fire hooks.
	s.Complete(a.ID, SignedArtifact{Data: []byte("again")})
	s.Fail("ghost", "boom")

	assert.Equal(t, 2, created)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
}
