package framework

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
)

type fakeSource struct {
	mu    sync.Mutex
	queue []*Message
	acked []string
}

func (f *fakeSource) Consume(ctx context.Context, queue string, timeout, ttr time.Duration) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, nil
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeSource) Ack(ctx context.Context, queue string, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, jobID)
	return nil
}

func (f *fakeSource) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func TestParseJob(t *testing.T) {
	job, err := ParseJob([]byte(`{"jobId":"J1","jobType":"quote","sourceIds":["OPP1","OPP2"],"callbackUrl":"http://cb"}`))
	require.NoError(t, err)
	assert.Equal(t, "J1", job.JobID)
	assert.Equal(t, "quote", job.JobType)
	assert.Equal(t, []string{"OPP1", "OPP2"}, job.SourceIDs)
	assert.Equal(t, "http://cb", job.CallbackURL)
}

func TestParseJob_OpportunityIDsAlias(t *testing.T) {
	job, err := ParseJob([]byte(`{"jobId":"J1","jobType":"quote","opportunityIds":["OPP1"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"OPP1"}, job.SourceIDs)

	job, err = ParseJob([]byte(`{"jobId":"J1","jobType":"quote","sourceIds":["A"],"opportunityIds":["B"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, job.SourceIDs, "sourceIds wins")
}

func TestParseJob_Invalid(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":     `not json`,
		"missing id":   `{"jobType":"quote"}`,
		"missing type": `{"jobId":"J1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJob([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestPreProcessor_StopsAtFirstError(t *testing.T) {
	var ran []int
	step := func(i int, err error) ProcessorFunc {
		return func(ctx context.Context) error {
			ran = append(ran, i)
			return err
		}
	}

	err := NewPreProcessor(step(0, nil), step(1, assert.AnError), step(2, nil)).Run(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{0, 1}, ran)
}

func TestProcessor_AcksEveryMessage(t *testing.T) {
	source := &fakeSource{}
	var handled []string
	proc := func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
		handled = append(handled, string(job.Data))
		switch string(job.Data) {
		case "ok":
			return lmstfyx.Success(nil)
		case "bad":
			return lmstfyx.Drop(nil)
		default:
			return nil
		}
	}

	p := NewProcessor(&ProcessorConfig{Concurrency: 1, BufferSize: 3}, proc, source, logger.NewNop())
	in := make(chan *Message, 3)
	in <- &Message{ID: "m1", Queue: "jobsChannel", Data: []byte("ok")}
	in <- &Message{ID: "m2", Queue: "jobsChannel", Data: []byte("bad")}
	in <- &Message{ID: "m3", Queue: "jobsChannel", Data: []byte("nil")}

	require.NoError(t, p.Start(context.Background(), in))
	p.SignalShutdown()
	p.Wait()

	assert.Equal(t, []string{"ok", "bad", "nil"}, handled)
	assert.Equal(t, []string{"m1", "m2", "m3"}, source.ackedIDs())
}

func TestProcessor_TimeoutSetsDeadline(t *testing.T) {
	source := &fakeSource{}
	var hasDeadline []bool
	proc := func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
		_, ok := ctx.Deadline()
		hasDeadline = append(hasDeadline, ok)
		return lmstfyx.Success(nil)
	}

	for _, timeout := range []time.Duration{0, time.Minute} {
		p := NewProcessor(&ProcessorConfig{Concurrency: 1, Timeout: timeout}, proc, source, logger.NewNop())
		in := make(chan *Message, 1)
		in <- &Message{ID: "m", Queue: "q"}
		require.NoError(t, p.Start(context.Background(), in))
		p.SignalShutdown()
		p.Wait()
	}

	assert.Equal(t, []bool{false, true}, hasDeadline)
}

func TestSubscriber_ForwardsUntilStopped(t *testing.T) {
	source := &fakeSource{queue: []*Message{{ID: "m1"}, {ID: "m2"}}}
	s := NewSubscriber(&SubscriberConfig{QueueName: "jobsChannel", Concurrency: 1}, source, logger.NewNop())

	out := make(chan *Message, 2)
	require.NoError(t, s.Start(context.Background(), out))

	first := <-out
	second := <-out
	s.Stop()
	s.Wait()

	assert.Equal(t, "m1", first.ID)
	assert.Equal(t, "m2", second.ID)
}
