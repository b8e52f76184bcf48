package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/models"
)

var now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func TestNewLoginLandingPage(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		want Page
	}{
		{"regular user", models.User{ID: uuid.New()}, PageDashboard},
		{"administrator", models.User{ID: uuid.New(), IsAdmin: true}, PageAdminUsers},
		{"pending password change", models.User{ID: uuid.New(), IsAdmin: true, MustChangePassword: true}, PagePasswordUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLogin(&tt.user, now)
			assert.Equal(t, tt.want, s.Page)
			assert.NotEmpty(t, s.ID)
		})
	}
}

func TestNavigateChecksCapability(t *testing.T) {
	user := NewLogin(&models.User{ID: uuid.New()}, now)
	assert.ErrorIs(t, user.Navigate(PageAdminUsers, now), ErrPageNotAllowed)
	assert.ErrorIs(t, user.Navigate(Page("settings"), now), ErrPageNotAllowed)
	require.NoError(t, user.Navigate(PageReports, now))
	assert.Equal(t, PageReports, user.Page)

	restricted := NewLogin(&models.User{ID: uuid.New(), MustChangePassword: true}, now)
	assert.ErrorIs(t, restricted.Navigate(PageDashboard, now), ErrPageNotAllowed)
	assert.Equal(t, PagePasswordUpdate, restricted.Page)
	assert.True(t, restricted.Allows(CapabilityPasswordChange))
	assert.False(t, restricted.Allows(CapabilityUser))
}

func TestAnalysisTransitions(t *testing.T) {
	s := NewLogin(&models.User{ID: uuid.New()}, now)

	s.BeginAnalysis("Senior Recruiter.pdf", []string{"Alice CV.pdf"}, now)
	result := &models.AnalysisResult{FinalRecommendation: "Shortlist Alice"}
	s.CompleteAnalysis(result, []byte("docx"), "Alice_report.docx", now)

	require.NotNil(t, s.Analysis)
	assert.Equal(t, "Senior Recruiter.pdf", s.Analysis.JobDescriptionFilename)
	assert.Equal(t, result, s.Analysis.Result)

	reportID := uuid.New()
	s.AttachReport(reportID, "https://storage.example/report.docx", now)
	require.NotNil(t, s.Analysis.ReportID)
	assert.Equal(t, reportID, *s.Analysis.ReportID)

	s.BeginAnalysis("Other.pdf", []string{"Bob.pdf"}, now)
	assert.Nil(t, s.Analysis, "starting a new analysis clears the previous result")

	s.FailAnalysis("provider unavailable", now)
	assert.Nil(t, s.Analysis)
	assert.Equal(t, "provider unavailable", s.LastError)
	assert.Equal(t, PageDashboard, s.Page)
}

func TestMemoryStoreRoundTripAndExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	clock := now
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	s := NewLogin(&models.User{ID: uuid.New(), Email: "a@example.com"}, now)
	s.BeginAnalysis("jd.txt", []string{"cv.txt"}, now)
	s.CompleteAnalysis(&models.AnalysisResult{}, []byte{1, 2, 3}, "doc.docx", now)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Email, loaded.Email)
	assert.Equal(t, []byte{1, 2, 3}, loaded.Analysis.Document)

	loaded.Email = "changed@example.com"
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)

	clock = clock.Add(2 * time.Hour)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	s := NewLogin(&models.User{ID: uuid.New()}, now)

	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreUpdateDoesNotRecreateEndedSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	s := NewLogin(&models.User{ID: uuid.New()}, now)

	assert.ErrorIs(t, store.Update(ctx, s), ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, s))
	s.Page = PageReports
	require.NoError(t, store.Update(ctx, s))
	loaded, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, PageReports, loaded.Page)

	require.NoError(t, store.Delete(ctx, s.ID))
	assert.ErrorIs(t, store.Update(ctx, s), ErrSessionNotFound)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
