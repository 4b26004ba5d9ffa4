package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-bankfeed/core"
)

const (
	DefaultMaxConcurrent = 2
	DefaultItemTimeout   = 8 * time.Second
)

// Task is one unit of per-account work: usually a detail+balance pair built
// with PairTask.
type Task struct {
	AccountID string
	Fn        func(ctx context.Context) (core.Account, error)
}

// Orchestrator fans per-account fetches out under a hard concurrency cap.
// Batches run strictly one after another; a batch never starts while the
// previous one still has items in flight.
type Orchestrator struct {
	MaxConcurrent int
	ItemTimeout   time.Duration
	Now           func() time.Time
}

func NewOrchestrator(cfg core.OrchestratorConfig) *Orchestrator {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	itemTimeout := cfg.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}
	return &Orchestrator{
		MaxConcurrent: maxConcurrent,
		ItemTimeout:   itemTimeout,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type itemResult struct {
	account core.Account
	err     error
}

// Run executes every task and reports per-account outcomes. A slow item only
// loses its waiter: the underlying call keeps the parent context and is left
// to finish or fail on its own, so one stuck account cannot cancel work that
// shares its connection.
//
// When every task fails the run itself fails with an aggregate error; any
// single success makes the run a partial success instead.
func (o *Orchestrator) Run(
	ctx context.Context,
	provider core.ProviderID,
	sessionID string,
	tasks []Task,
) (core.FetchReport, error) {
	if o == nil {
		return core.FetchReport{}, fmt.Errorf("fetch: orchestrator is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tasks) == 0 {
		return core.FetchReport{}, nil
	}

	maxConcurrent := o.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	itemTimeout := o.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}

	outcomes := make([]core.FetchOutcome, len(tasks))
	for start := 0; start < len(tasks); start += maxConcurrent {
		end := start + maxConcurrent
		if end > len(tasks) {
			end = len(tasks)
		}

		var wg sync.WaitGroup
		for idx := start; idx < end; idx++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				outcomes[idx] = o.await(ctx, itemTimeout, tasks[idx])
			}(idx)
		}
		wg.Wait()

		if ctx.Err() != nil {
			for idx := end; idx < len(tasks); idx++ {
				outcomes[idx] = core.FetchOutcome{
					AccountID: strings.TrimSpace(tasks[idx].AccountID),
					Err:       ctx.Err(),
				}
			}
			break
		}
	}

	report := core.FetchReport{}
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			report.Accounts = append(report.Accounts, outcome.Account)
			continue
		}
		report.Failed = append(report.Failed, outcome)
	}

	if len(report.Accounts) == 0 {
		return report, core.NewAggregateFetchError(provider, sessionID, len(report.Failed))
	}
	return report, nil
}

// await races one task against its timeout. The task goroutine writes into a
// buffered channel, so an abandoned result is dropped without blocking it.
func (o *Orchestrator) await(ctx context.Context, timeout time.Duration, task Task) core.FetchOutcome {
	accountID := strings.TrimSpace(task.AccountID)
	if task.Fn == nil {
		return core.FetchOutcome{
			AccountID: accountID,
			Err:       fmt.Errorf("fetch: task for account %q has no work function", accountID),
		}
	}

	results := make(chan itemResult, 1)
	go func() {
		account, err := task.Fn(ctx)
		results <- itemResult{account: account, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			return core.FetchOutcome{AccountID: accountID, Err: result.err}
		}
		account := result.account
		if strings.TrimSpace(account.ID) == "" {
			account.ID = accountID
		}
		return core.FetchOutcome{AccountID: accountID, Account: account}
	case <-timer.C:
		return core.FetchOutcome{
			AccountID: accountID,
			Err:       core.NewTimeoutError("account " + accountID + " fetch timed out"),
		}
	case <-ctx.Done():
		return core.FetchOutcome{AccountID: accountID, Err: ctx.Err()}
	}
}

// PairTask builds a Task that fetches an account's detail and balance
// concurrently and merges them. A canonical account only exists when both
// halves succeed; either failure fails the whole pair.
func PairTask(
	accountID string,
	detailFn func(ctx context.Context) (core.Account, error),
	balanceFn func(ctx context.Context) (core.Balance, error),
) Task {
	accountID = strings.TrimSpace(accountID)
	return Task{
		AccountID: accountID,
		Fn: func(ctx context.Context) (core.Account, error) {
			if detailFn == nil || balanceFn == nil {
				return core.Account{}, fmt.Errorf("fetch: pair for account %q needs detail and balance functions", accountID)
			}

			var (
				wg         sync.WaitGroup
				account    core.Account
				balance    core.Balance
				detailErr  error
				balanceErr error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				account, detailErr = detailFn(ctx)
			}()
			go func() {
				defer wg.Done()
				balance, balanceErr = balanceFn(ctx)
			}()
			wg.Wait()

			if detailErr != nil {
				return core.Account{}, detailErr
			}
			if balanceErr != nil {
				return core.Account{}, balanceErr
			}

			account.Balance = balance
			if strings.TrimSpace(account.Currency) == "" {
				account.Currency = balance.Currency
			}
			if strings.TrimSpace(account.ID) == "" {
				account.ID = accountID
			}
			return account, nil
		},
	}
}
