package gocommand

import (
	"context"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	"github.com/goliatone/go-bankfeed/command"
	"github.com/goliatone/go-bankfeed/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(gocmd.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *gocmd.Registry
}

func NewRegistryAdapter(registry *gocmd.Registry) *RegistryAdapter {
	if registry == nil {
		registry = gocmd.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *gocmd.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver gocmd.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd gocmd.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry gocmd.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// SubscriptionSet tracks dispatcher subscriptions so callers can tear the
// whole handler surface down at once.
type SubscriptionSet struct {
	subscriptions []commanddispatcher.Subscription
}

func (s *SubscriptionSet) add(sub commanddispatcher.Subscription) {
	if s == nil || sub == nil {
		return
	}
	s.subscriptions = append(s.subscriptions, sub)
}

func (s *SubscriptionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subscriptions)
}

func (s *SubscriptionSet) Unsubscribe() {
	if s == nil {
		return
	}
	for _, sub := range s.subscriptions {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	s.subscriptions = nil
}

// SubscribeEngine wires the full bankfeed handler surface into the dispatcher:
// every mutating command and every read query the HTTP layer dispatches.
func SubscribeEngine(
	mutating command.MutatingService,
	read query.ReadService,
	runnerOpts ...runner.Option,
) (*SubscriptionSet, error) {
	if mutating == nil {
		return nil, fmt.Errorf("gocommand: mutating service is required")
	}
	if read == nil {
		return nil, fmt.Errorf("gocommand: read service is required")
	}

	set := &SubscriptionSet{}
	set.add(SubscribeCommand(command.NewAuthenticateCommand(mutating), runnerOpts...))
	set.add(SubscribeCommand(command.NewExchangeCodeCommand(mutating), runnerOpts...))
	set.add(SubscribeCommand(command.NewSyncAccountsCommand(mutating), runnerOpts...))
	set.add(SubscribeCommand(command.NewDeleteConnectionCommand(mutating), runnerOpts...))
	set.add(SubscribeQuery(query.NewGetAccountDetailsQuery(read), runnerOpts...))
	set.add(SubscribeQuery(query.NewGetAccountBalanceQuery(read), runnerOpts...))
	set.add(SubscribeQuery(query.NewGetTransactionsQuery(read), runnerOpts...))
	set.add(SubscribeQuery(query.NewListInstitutionsQuery(read), runnerOpts...))
	set.add(SubscribeQuery(query.NewHealthQuery(read), runnerOpts...))
	return set, nil
}

// RegisterEngine registers the same handler surface with a registry so queue
// resolvers and introspection see the message contracts.
func RegisterEngine(adapter *RegistryAdapter, mutating command.MutatingService, read query.ReadService) error {
	if adapter == nil || adapter.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if mutating == nil {
		return fmt.Errorf("gocommand: mutating service is required")
	}
	if read == nil {
		return fmt.Errorf("gocommand: read service is required")
	}

	commands := []any{
		command.NewAuthenticateCommand(mutating),
		command.NewExchangeCodeCommand(mutating),
		command.NewSyncAccountsCommand(mutating),
		command.NewDeleteConnectionCommand(mutating),
	}
	for _, cmd := range commands {
		if err := adapter.RegisterCommand(cmd); err != nil {
			return err
		}
	}

	queries := []any{
		query.NewGetAccountDetailsQuery(read),
		query.NewGetAccountBalanceQuery(read),
		query.NewGetTransactionsQuery(read),
		query.NewListInstitutionsQuery(read),
		query.NewHealthQuery(read),
	}
	for _, qry := range queries {
		if err := adapter.RegisterQuery(qry); err != nil {
			return err
		}
	}
	return nil
}
