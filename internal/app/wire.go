package app

import (
	"log/slog"

	"github.com/paisapredict/predictctl/internal/config"
	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
	"github.com/paisapredict/predictctl/internal/session"
	"github.com/paisapredict/predictctl/internal/settlement"
	"github.com/paisapredict/predictctl/internal/trading"
)

// Dependencies bundles every wired component the subcommands need.
type Dependencies struct {
	Client     *paisa.Client
	Session    *session.Manager
	Settlement *settlement.Workflow
	Trading    *trading.Service
}

// Wire constructs the dependency graph: the file token store feeds the
// session manager, which in turn is the API client's token source.
func Wire(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store := session.NewFileStore(cfg.Session.TokenPath)
	mgr := session.NewManager(store, logger)

	client := paisa.NewClient(cfg.API.BaseURL, cfg.API.Timeout.Duration)
	mgr.Bind(client)

	if err := mgr.Init(); err != nil {
		return nil, err
	}

	return &Dependencies{
		Client:     client,
		Session:    mgr,
		Settlement: settlement.NewWorkflow(client, logger),
		Trading:    trading.NewService(client, domain.Money(cfg.Trading.MinStakePaise), logger),
	}, nil
}
