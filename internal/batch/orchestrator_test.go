package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// scriptedProcessor fails the filenames listed in failOn and succeeds on
// everything else, while tracking the high-water mark of in-flight calls.
type scriptedProcessor struct {
	failOn    map[string]bool
	delay     time.Duration
	panicOn   map[string]bool
	inFlight  atomic.Int32
	maxSeen   atomic.Int32
	callCount atomic.Int32
}

func (p *scriptedProcessor) Process(ctx context.Context, image []byte, filename, id string) model.ItemResult {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		prev := p.maxSeen.Load()
		if cur <= prev || p.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	p.callCount.Add(1)

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.panicOn[filename] {
		panic("corrupt image data")
	}
	if p.failOn[filename] {
		return model.ItemResult{
			ID:           id,
			Filename:     filename,
			Status:       model.StatusFailed,
			Outcome:      model.OutcomeExtractionFailed,
			ErrorMessage: "extraction failed",
		}
	}
	return model.ItemResult{
		ID:       id,
		Filename: filename,
		Status:   model.StatusCompleted,
		Outcome:  model.OutcomeExtractedOK,
		Records:  []model.ExtractedRecord{{ItemDescription: "Screen", Quantity: 1}},
	}
}

func images(n int) []ImageInput {
	out := make([]ImageInput, n)
	for i := range out {
		out[i] = ImageInput{Filename: fmt.Sprintf("img-%d.jpg", i), Data: []byte{0xff}}
	}
	return out
}

func waitSettled(t *testing.T, o *Orchestrator, jobID string) model.BatchJob {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx, jobID))
	job, err := o.Results(jobID)
	require.NoError(t, err)
	return job
}

func TestSubmit_PartialFailuresStillComplete(t *testing.T) {
	proc := &scriptedProcessor{failOn: map[string]bool{
		"img-2.jpg": true,
		"img-7.jpg": true,
	}}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(10), 3)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(jobID, "batch_"))

	job := waitSettled(t, o, jobID)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, 8, job.Completed)
	assert.Equal(t, 2, job.Failed)
	assert.Equal(t, 10, job.TotalItems)
	require.NotNil(t, job.CompletedAt)

	require.Len(t, job.Results, 10)
	assert.Equal(t, model.StatusFailed, job.Results[2].Status)
	assert.Equal(t, model.StatusFailed, job.Results[7].Status)
	assert.Equal(t, model.StatusCompleted, job.Results[0].Status)
}

func TestSubmit_AllFailuresFailTheJob(t *testing.T) {
	fail := make(map[string]bool)
	for i := 0; i < 4; i++ {
		fail[fmt.Sprintf("img-%d.jpg", i)] = true
	}
	o := NewOrchestrator(&scriptedProcessor{failOn: fail}, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(4), 0)
	require.NoError(t, err)

	job := waitSettled(t, o, jobID)
	assert.Equal(t, model.StatusFailed, job.Status)
	assert.Equal(t, 0, job.Completed)
	assert.Equal(t, 4, job.Failed)
}

func TestSubmit_EmptyBatchRejected(t *testing.T) {
	o := NewOrchestrator(&scriptedProcessor{}, NewMemoryStore(), Config{})

	_, err := o.Submit(context.Background(), nil, 0)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmit_OversizedBatchRejected(t *testing.T) {
	o := NewOrchestrator(&scriptedProcessor{}, NewMemoryStore(), Config{MaxBatchSize: 3})

	_, err := o.Submit(context.Background(), images(4), 0)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmit_ConcurrencyIsBounded(t *testing.T) {
	proc := &scriptedProcessor{delay: 20 * time.Millisecond}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(12), 3)
	require.NoError(t, err)
	waitSettled(t, o, jobID)

	assert.LessOrEqual(t, proc.maxSeen.Load(), int32(3))
	assert.Equal(t, int32(12), proc.callCount.Load())
}

func TestSubmit_ConcurrencyClampedToMax(t *testing.T) {
	proc := &scriptedProcessor{delay: 20 * time.Millisecond}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{MaxConcurrency: 2})

	jobID, err := o.Submit(context.Background(), images(8), 50)
	require.NoError(t, err)
	waitSettled(t, o, jobID)

	assert.LessOrEqual(t, proc.maxSeen.Load(), int32(2))
}

func TestSubmit_PanicContainedToOneItem(t *testing.T) {
	proc := &scriptedProcessor{panicOn: map[string]bool{"img-1.jpg": true}}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(3), 2)
	require.NoError(t, err)

	job := waitSettled(t, o, jobID)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, 2, job.Completed)
	assert.Equal(t, 1, job.Failed)
	assert.Equal(t, model.StatusFailed, job.Results[1].Status)
	assert.Contains(t, job.Results[1].ErrorMessage, "panic")
}

func TestSubmit_SurvivesCallerCancellation(t *testing.T) {
	proc := &scriptedProcessor{delay: 10 * time.Millisecond}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	jobID, err := o.Submit(ctx, images(5), 2)
	require.NoError(t, err)
	cancel()

	job := waitSettled(t, o, jobID)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, 5, job.Completed)
}

func TestStatus_UnknownJob(t *testing.T) {
	o := NewOrchestrator(&scriptedProcessor{}, NewMemoryStore(), Config{})

	_, err := o.Status("batch_missing")
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestStatus_OmitsResults(t *testing.T) {
	o := NewOrchestrator(&scriptedProcessor{}, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(3), 1)
	require.NoError(t, err)
	waitSettled(t, o, jobID)

	job, err := o.Status(jobID)
	require.NoError(t, err)
	assert.Nil(t, job.Results)
	assert.Equal(t, 3, job.TotalItems)
}

func TestResults_BeforeSettlement(t *testing.T) {
	release := make(chan struct{})
	proc := &blockingProcessor{release: release}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(2), 1)
	require.NoError(t, err)

	_, err = o.Results(jobID)
	var inv *model.InvalidStateError
	require.ErrorAs(t, err, &inv)

	close(release)
	waitSettled(t, o, jobID)
	_, err = o.Results(jobID)
	require.NoError(t, err)
}

func TestWait_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	proc := &blockingProcessor{release: release}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(1), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.Wait(ctx, jobID), context.DeadlineExceeded)

	close(release)
	require.NoError(t, o.Wait(context.Background(), jobID))
}

func TestStatus_SafeWhileProcessing(t *testing.T) {
	proc := &scriptedProcessor{delay: 5 * time.Millisecond}
	o := NewOrchestrator(proc, NewMemoryStore(), Config{})

	jobID, err := o.Submit(context.Background(), images(20), 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				job, err := o.Status(jobID)
				if err == nil {
					assert.LessOrEqual(t, job.Completed+job.Failed, job.TotalItems)
				}
			}
		}()
	}
	wg.Wait()

	job := waitSettled(t, o, jobID)
	assert.Equal(t, job.TotalItems, job.Completed+job.Failed)
}

type blockingProcessor struct {
	release chan struct{}
}

func (p *blockingProcessor) Process(ctx context.Context, image []byte, filename, id string) model.ItemResult {
	<-p.release
	return model.ItemResult{ID: id, Filename: filename, Status: model.StatusCompleted, Outcome: model.OutcomeExtractedOK}
}
