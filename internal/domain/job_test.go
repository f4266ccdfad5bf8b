package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	t.Run("valid URL creates pending job", func(t *testing.T) {
		t.Parallel()

		job, err := NewJob("https://example.com/report")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.Equal(t, JobStatePending, job.State)
		assert.Equal(t, "https://example.com/report", job.SourceURL)
		assert.Empty(t, job.ArtifactRef)
		assert.Empty(t, job.ErrorReason)
		assert.Nil(t, job.CompletedAt)
		assert.WithinDuration(t, time.Now().UTC(), job.CreatedAt, time.Minute)
	})

	t.Run("each job gets a fresh ID", func(t *testing.T) {
		t.Parallel()

		job1, err := NewJob("http://example.com")
		require.NoError(t, err)
		job2, err := NewJob("http://example.com")
		require.NoError(t, err)

		assert.NotEqual(t, job1.ID, job2.ID)
	})

	t.Run("invalid URL creates no job", func(t *testing.T) {
		t.Parallel()

		job, err := NewJob("not-a-url")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, job)
	})
}

func TestValidateSourceURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		url       string
		wantErr   error
		wantValid bool
	}{
		{name: "valid https", url: "https://example.com/page", wantValid: true},
		{name: "valid http", url: "http://example.com", wantValid: true},
		{name: "valid with query", url: "https://example.com/a?b=c", wantValid: true},
		{name: "empty", url: "", wantErr: ErrEmptyURL},
		{name: "no scheme", url: "not-a-url", wantErr: ErrMalformedURL},
		{name: "scheme without host", url: "http://", wantErr: ErrMalformedURL},
		{name: "spaces", url: "http://exa mple.com", wantErr: ErrMalformedURL},
		{name: "ftp scheme", url: "ftp://example.com/file", wantErr: ErrUnsupportedScheme},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSourceURL(tt.url)
			if tt.wantValid {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJob_Validate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	base := func() *Job {
		return &Job{
			ID:        uuid.New(),
			SourceURL: "https://example.com",
			State:     JobStatePending,
			CreatedAt: now,
		}
	}

	t.Run("valid pending job", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, base().Validate())
	})

	t.Run("nil ID rejected", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.ID = uuid.Nil
		assert.ErrorIs(t, job.Validate(), ErrEmptyJobID)
	})

	t.Run("unknown state rejected", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.State = JobState("paused")
		assert.ErrorIs(t, job.Validate(), ErrInvalidJobState)
	})

	t.Run("completed requires artifact ref", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.State = JobStateCompleted
		assert.ErrorIs(t, job.Validate(), ErrArtifactRefUnset)

		job.ArtifactRef = "abc.pdf"
		assert.NoError(t, job.Validate())
	})

	t.Run("failed requires error reason", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.State = JobStateFailed
		assert.ErrorIs(t, job.Validate(), ErrErrorReasonUnset)

		job.ErrorReason = "render timed out"
		assert.NoError(t, job.Validate())
	})

	t.Run("artifact ref and error reason are exclusive", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.State = JobStateCompleted
		job.ArtifactRef = "abc.pdf"
		job.ErrorReason = "boom"
		assert.ErrorIs(t, job.Validate(), ErrTerminalExclusive)
	})

	t.Run("non-terminal carries neither", func(t *testing.T) {
		t.Parallel()
		job := base()
		job.ArtifactRef = "early.pdf"
		assert.ErrorIs(t, job.Validate(), ErrTerminalExclusive)
	})
}

func TestJob_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from JobState
		to   JobState
		want bool
	}{
		{JobStatePending, JobStateGenerating, true},
		{JobStatePending, JobStateCompleted, false},
		{JobStatePending, JobStateFailed, false},
		{JobStateGenerating, JobStateCompleted, true},
		{JobStateGenerating, JobStateFailed, true},
		{JobStateGenerating, JobStatePending, false},
		{JobStateCompleted, JobStateFailed, false},
		{JobStateCompleted, JobStateGenerating, false},
		{JobStateFailed, JobStateGenerating, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			t.Parallel()

			job := &Job{State: tt.from}
			assert.Equal(t, tt.want, job.CanTransitionTo(tt.to))
		})
	}
}

func TestJob_ProcessingTime(t *testing.T) {
	t.Parallel()

	created := time.Now().UTC()
	done := created.Add(3 * time.Second)

	job := &Job{CreatedAt: created}
	assert.Zero(t, job.ProcessingTime())

	job.CompletedAt = &done
	assert.Equal(t, 3*time.Second, job.ProcessingTime())
}
