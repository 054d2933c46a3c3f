package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/internal/infrastructure/mail"
	"github.com/jetdesk/billing/internal/infrastructure/messaging"
	"github.com/jetdesk/billing/internal/usecase"
	pkgmessaging "github.com/jetdesk/billing/pkg/messaging"
)

type fakeReconciler struct {
	summary usecase.ReconcileSummary
	err     error
}

func (f fakeReconciler) Run(ctx context.Context) (usecase.ReconcileSummary, error) {
	return f.summary, f.err
}

type fakeReplayer struct {
	limit int
	err   error
}

func (f *fakeReplayer) ReplayRetryable(ctx context.Context, limit int) (int, error) {
	f.limit = limit
	return 2, f.err
}

func TestRunMaintenance_RunsBothHalves(t *testing.T) {
	rep := &fakeReplayer{}
	err := runMaintenance(context.Background(),
		fakeReconciler{err: errors.New("list failed")}, rep, 25, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list failed")
	assert.Equal(t, 25, rep.limit)
}

func TestRunMaintenance_JoinsErrors(t *testing.T) {
	recErr := errors.New("list failed")
	repErr := errors.New("events unavailable")

	err := runMaintenance(context.Background(),
		fakeReconciler{err: recErr}, &fakeReplayer{err: repErr}, 10, zap.NewNop())

	assert.ErrorIs(t, err, recErr)
	assert.ErrorIs(t, err, repErr)
}

func TestRunMaintenance_Success(t *testing.T) {
	err := runMaintenance(context.Background(),
		fakeReconciler{summary: usecase.ReconcileSummary{Checked: 3, Updated: 1}}, &fakeReplayer{}, 10, zap.NewNop())
	assert.NoError(t, err)
}

func TestReplayBatch(t *testing.T) {
	assert.Equal(t, defaultReplayBatch, replayBatch(0))
	assert.Equal(t, 200, replayBatch(200))
}

func TestSelectNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgmessaging.NewRedisClient(pkgmessaging.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	mailer := mail.NewWelcomeMailer(config.EmailConfig{Host: "localhost", Port: 2525}, zap.NewNop())

	assert.IsType(t, &messaging.WelcomePublisher{}, selectNotifier(client, "billing:welcome", mailer))
	assert.Same(t, mailer, selectNotifier(nil, "", mailer))
	assert.Nil(t, selectNotifier(nil, "", nil))
	// with no mailer anywhere a queued welcome would never be sent
	assert.Nil(t, selectNotifier(client, "billing:welcome", nil))
}

func TestRunEvery(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunEvery(ctx, 10*time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return nil
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunEvery did not stop")
	}
}
