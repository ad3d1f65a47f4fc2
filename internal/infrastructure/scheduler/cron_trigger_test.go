package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pagedMemberRepository serves FindAll from a fixed slice; other methods are unused
type pagedMemberRepository struct {
	member.MemberRepository
	members []member.Member
	pages   []int
}

func (r *pagedMemberRepository) FindAll(_ context.Context, filter shared.Filter) ([]member.Member, int64, error) {
	r.pages = append(r.pages, filter.Page)
	start := filter.Offset()
	if start > len(r.members) {
		start = len(r.members)
	}
	end := start + filter.Limit()
	if end > len(r.members) {
		end = len(r.members)
	}
	return r.members[start:end], int64(len(r.members)), nil
}

func membersWithIDs(n int) []member.Member {
	out := make([]member.Member, n)
	for i := range out {
		out[i].ID = uuid.New()
	}
	return out
}

type staticMembers struct {
	ids []uuid.UUID
	err error
}

func (s staticMembers) ListMemberIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type fakeReconciler struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*commissionapp.ReconciliationReport
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
}

func (f *fakeReconciler) Reconcile(_ context.Context, memberID uuid.UUID) (*commissionapp.ReconciliationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, memberID)
	if err := f.errs[memberID]; err != nil {
		return f.reports[memberID], err
	}
	if r, ok := f.reports[memberID]; ok {
		return r, nil
	}
	return &commissionapp.ReconciliationReport{MemberID: memberID, Consistent: true}, nil
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		hour    int
		minute  int
		wantErr bool
	}{
		{expr: "", hour: 2, minute: 0},
		{expr: "30 3 * * *", hour: 3, minute: 30},
		{expr: "* 4 * * *", hour: 4, minute: 0},
		{expr: "15 * * * *", hour: 2, minute: 15},
		{expr: "0 24 * * *", wantErr: true},
		{expr: "60 1 * * *", wantErr: true},
		{expr: "x 1 * * *", wantErr: true},
		{expr: "5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestRepositoryMemberProvider_PagesThroughAllMembers(t *testing.T) {
	repo := &pagedMemberRepository{members: membersWithIDs(230)}
	provider := NewRepositoryMemberProvider(repo)

	ids, err := provider.ListMemberIDs(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 230)
	assert.Equal(t, repo.members[0].ID, ids[0])
	assert.Equal(t, repo.members[229].ID, ids[229])
	assert.Equal(t, []int{1, 2, 3}, repo.pages)
}

func TestRepositoryMemberProvider_Empty(t *testing.T) {
	provider := NewRepositoryMemberProvider(&pagedMemberRepository{})

	ids, err := provider.ListMemberIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCronTrigger_RunsOncePerDay(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	reconciler := &fakeReconciler{}
	s := startScheduler(t, testConfig(), NewReconcileExecutor(reconciler, zap.NewNop()))

	trigger := NewCronTrigger(CronTriggerConfig{Hour: 2, Minute: 0}, s, staticMembers{ids: ids}, zap.NewNop())
	current := time.Date(2026, 3, 1, 1, 59, 0, 0, time.Local)
	trigger.now = func() time.Time { return current }

	ctx := context.Background()
	assert.False(t, trigger.checkAndTrigger(ctx))

	current = current.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger(ctx))
	assert.False(t, trigger.checkAndTrigger(ctx), "second tick in the same minute must not rerun")

	require.Eventually(t, func() bool {
		return s.Stats().Succeeded == 2
	}, time.Second, 5*time.Millisecond)

	current = current.Add(24 * time.Hour)
	assert.True(t, trigger.checkAndTrigger(ctx))
}

func TestCronTrigger_TriggerNowPropagatesProviderError(t *testing.T) {
	s := startScheduler(t, testConfig(), funcExecutor(func(context.Context, *Job) error { return nil }))
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, staticMembers{err: errors.New("db down")}, zap.NewNop())

	queued, err := trigger.TriggerNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 0, queued)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s := startScheduler(t, testConfig(), funcExecutor(func(context.Context, *Job) error { return nil }))
	trigger := NewCronTrigger(CronTriggerConfig{CheckInterval: time.Millisecond}, s, staticMembers{}, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
}

func TestReconcileExecutor(t *testing.T) {
	consistent := uuid.New()
	drifted := uuid.New()
	negative := uuid.New()
	missing := uuid.New()
	flaky := uuid.New()

	reconciler := &fakeReconciler{
		reports: map[uuid.UUID]*commissionapp.ReconciliationReport{
			drifted: {
				MemberID: drifted,
				Issues:   []string{"total_earnings 10 != pending+paid records 12"},
			},
		},
		errs: map[uuid.UUID]error{
			drifted:  shared.NewDomainError(member.ErrInconsistentLedger.Code, "Earnings ledger invariant violated"),
			negative: member.ErrInconsistentLedger,
			missing:  shared.ErrNotFound,
			flaky:    errors.New("connection reset"),
		},
	}
	exec := NewReconcileExecutor(reconciler, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, exec.Execute(ctx, NewJob(consistent, 0)))
	assert.NoError(t, exec.Execute(ctx, NewJob(drifted, 0)), "an inconsistent ledger is not retried")
	assert.NoError(t, exec.Execute(ctx, NewJob(negative, 0)))
	assert.NoError(t, exec.Execute(ctx, NewJob(missing, 0)))
	assert.Error(t, exec.Execute(ctx, NewJob(flaky, 0)))

	found := exec.Inconsistent()
	require.Len(t, found, 2)
	assert.Equal(t, []string{"total_earnings 10 != pending+paid records 12"}, found[drifted])
	assert.Len(t, found[negative], 1)

	// a later clean check clears the finding
	reconciler.mu.Lock()
	delete(reconciler.errs, drifted)
	delete(reconciler.reports, drifted)
	reconciler.mu.Unlock()
	require.NoError(t, exec.Execute(ctx, NewJob(drifted, 0)))
	assert.NotContains(t, exec.Inconsistent(), drifted)
}
