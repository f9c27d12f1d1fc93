package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionState_Lifecycle(t *testing.T) {
	var seen []ExtractionProgress
	s := NewExtractionState(func(p ExtractionProgress) { seen = append(seen, p) })

	require.True(t, s.Begin())
	assert.False(t, s.Begin(), "state is already held")

	s.Advance(StageReading, 20)
	s.SetPages(2)
	s.Advance(StageExtracting, 60)
	assert.Equal(t, 1, s.PageDone())
	assert.Equal(t, 2, s.PageDone())
	s.Advance(StageValidating, 50)
	s.Advance(StageDone, 130)

	snap := s.Snapshot()
	assert.Equal(t, StageDone, snap.Stage)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Equal(t, 2, snap.PagesTotal)
	assert.Equal(t, 2, snap.PagesProcessed)

	require.Len(t, seen, 5)
	assert.Equal(t, 60.0, seen[3].Progress, "a lower floor never decreases progress")

	s.End()
	assert.False(t, s.InFlight())
	require.True(t, s.Begin())
	assert.Equal(t, ExtractionProgress{Stage: StageIdle}, s.Snapshot())
}

func TestExtractionState_FailKeepsProgress(t *testing.T) {
	s := NewExtractionState(nil)
	require.True(t, s.Begin())
	s.Advance(StageParsing, 40)
	s.Fail()

	assert.Equal(t, ExtractionProgress{Stage: StageFailed, Progress: 40}, s.Snapshot())
}

func TestExtractionState_OneHolder(t *testing.T) {
	s := NewExtractionState(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Begin() {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestNewRawDocument(t *testing.T) {
	doc := NewRawDocument([]byte("%PDF-1.7"), PDFMediaType)
	assert.Equal(t, int64(8), doc.Size)
	assert.Equal(t, PDFMediaType, doc.MediaType)
	require.NotNil(t, doc.Body)
}
