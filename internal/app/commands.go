package app

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/engine"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

// requireUser resolves the session before any authenticated command runs,
// so an expired token degrades cleanly instead of surfacing as a mid-flow
// 401. Returns the profile or an error telling the user to log in.
func requireUser(ctx context.Context, deps *Dependencies) (domain.User, error) {
	user, err := deps.Session.RefreshUser(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, fmt.Errorf("not logged in (run: predictctl login <email>)")
	}
	return *user, nil
}

// promptLine reads one line from stdin after printing the prompt.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ---------------------------------------------------------------------------
// Session commands
// ---------------------------------------------------------------------------

func (a *App) cmdLogin(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predictctl login <email>")
	}
	password, err := promptLine("password: ")
	if err != nil {
		return err
	}

	user, err := deps.Session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (balance %s)\n", user.Email, user.Balance)
	return nil
}

func (a *App) cmdSignup(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predictctl signup <email>")
	}
	password, err := promptLine("password: ")
	if err != nil {
		return err
	}

	if err := deps.Session.Signup(ctx, args[0], password); err != nil {
		return err
	}

	fmt.Println("account created; sign in with: predictctl login", args[0])
	return nil
}

func (a *App) cmdLogout(_ context.Context, deps *Dependencies) error {
	deps.Session.Logout()
	fmt.Println("logged out")
	return nil
}

func (a *App) cmdWhoami(ctx context.Context, deps *Dependencies) error {
	user, err := requireUser(ctx, deps)
	if err != nil {
		return err
	}
	role := "trader"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Printf("%s\t%s\tbalance %s\n", user.Email, role, user.Balance)
	return nil
}

// ---------------------------------------------------------------------------
// Market commands
// ---------------------------------------------------------------------------

func (a *App) cmdMarkets(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("markets", flag.ContinueOnError)
	openOnly := fs.Bool("open", false, "only markets the service reports open")
	category := fs.String("category", "", "filter by category (Sports or Esports)")
	search := fs.String("search", "", "search market titles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		markets []domain.Market
		err     error
	)
	switch {
	case *search != "":
		markets, err = deps.Client.SearchMarkets(ctx, *search)
	case *category != "":
		cat := domain.Category(*category)
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q (valid: Sports, Esports)", *category)
		}
		markets, err = deps.Client.ListMarketsByCategory(ctx, cat)
	case *openOnly:
		markets, err = deps.Client.ListOpenMarkets(ctx)
	default:
		markets, err = deps.Client.ListMarkets(ctx)
	}
	if err != nil {
		return err
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tYES\tNO\tENDS\tTITLE")
	for _, m := range markets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%sx\t%sx\t%s\t%s\n",
			m.ID,
			engine.Status(m, now),
			m.Category,
			engine.Odds(m, domain.OutcomeYes).StringFixed(2),
			engine.Odds(m, domain.OutcomeNo).StringFixed(2),
			m.EndTime.Local().Format("2006-01-02 15:04"),
			m.Title,
		)
	}
	return w.Flush()
}

func (a *App) cmdMarket(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predictctl market <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market id %q", args[0])
	}

	m, err := deps.Client.GetMarket(ctx, id)
	if err != nil {
		return err
	}
	bets, err := deps.Client.ListMarketBets(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	printMarket(m, now)

	if len(bets) > 0 {
		fmt.Printf("\n%d bets on this market:\n", len(bets))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SIDE\tSTAKE\tODDS\tSTATUS")
		for _, b := range bets {
			fmt.Fprintf(w, "%s\t%s\t%sx\t%s\n", b.Outcome, b.Amount, b.Odds.StringFixed(2), b.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func printMarket(m domain.Market, now time.Time) {
	fmt.Printf("#%d %s [%s]\n", m.ID, m.Title, engine.Status(m, now))
	if m.Description != "" {
		fmt.Println(m.Description)
	}
	fmt.Printf("category %s, ends %s\n", m.Category, m.EndTime.Local().Format(time.RFC1123))
	fmt.Printf("odds: YES %sx / NO %sx\n",
		engine.Odds(m, domain.OutcomeYes).StringFixed(2),
		engine.Odds(m, domain.OutcomeNo).StringFixed(2),
	)
	if m.Outcome != nil {
		fmt.Printf("resolved: %s\n", *m.Outcome)
	}
}

// ---------------------------------------------------------------------------
// Wagering
// ---------------------------------------------------------------------------

func (a *App) cmdBet(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: predictctl bet <market-id> <YES|NO> <stake-paise>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market id %q", args[0])
	}
	outcome := domain.Outcome(strings.ToUpper(args[1]))
	stakeRaw, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stake %q (integer paise)", args[2])
	}
	stake := domain.Money(stakeRaw)

	user, err := requireUser(ctx, deps)
	if err != nil {
		return err
	}
	m, err := deps.Client.GetMarket(ctx, id)
	if err != nil {
		return err
	}

	projected := engine.ProjectedPayout(stake, outcome, m)
	fmt.Printf("staking %s on %s at %sx, projected payout %s (profit %s)\n",
		stake, outcome,
		engine.Odds(m, outcome).StringFixed(2),
		projected,
		engine.ProjectedProfit(stake, outcome, m),
	)

	result, err := deps.Trading.PlaceWager(ctx, user, m, outcome, stake)
	if err != nil {
		return err
	}

	fmt.Printf("bet placed at %sx (locked in); market odds now YES %sx / NO %sx\n",
		result.Receipt.Bet.Odds.StringFixed(2),
		result.Receipt.UpdatedOdds.OddsYes.StringFixed(2),
		result.Receipt.UpdatedOdds.OddsNo.StringFixed(2),
	)
	fmt.Printf("balance: %s\n", result.User.Balance)
	return nil
}

// ---------------------------------------------------------------------------
// Read-only aggregates
// ---------------------------------------------------------------------------

func (a *App) cmdProfile(ctx context.Context, deps *Dependencies) error {
	user, err := requireUser(ctx, deps)
	if err != nil {
		return err
	}

	// Bets and transactions are independent read-only views; fetch them
	// concurrently. (Only the bet-then-refresh pair must stay sequential.)
	var (
		bets []domain.Bet
		txs  []domain.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bets, err = deps.Client.ListUserBets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = deps.Client.ListTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%s\nbalance %s, total winnings %s\n", user.Email, user.Balance, domain.SumWinnings(txs))

	if len(bets) > 0 {
		fmt.Printf("\nbets:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MARKET\tSIDE\tSTAKE\tODDS\tSTATUS")
		for _, b := range bets {
			fmt.Fprintf(w, "%d\t%s\t%s\t%sx\t%s\n", b.MarketID, b.Outcome, b.Amount, b.Odds.StringFixed(2), b.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(txs) > 0 {
		fmt.Printf("\ntransactions:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTYPE\tAMOUNT")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", tx.CreatedAt.Local().Format("2006-01-02 15:04"), tx.Type, tx.Amount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) cmdLeaderboard(ctx context.Context, deps *Dependencies) error {
	entries, err := deps.Client.Leaderboard(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEMAIL\tWINNINGS")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.Email, e.TotalWinnings)
	}
	return w.Flush()
}

// ---------------------------------------------------------------------------
// Live odds
// ---------------------------------------------------------------------------

func (a *App) cmdWatch(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predictctl watch <market-id>")
	}
	if a.cfg.API.WsURL == "" {
		return fmt.Errorf("watch requires api.ws_url to be configured")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market id %q", args[0])
	}

	m, err := deps.Client.GetMarket(ctx, id)
	if err != nil {
		return err
	}
	printMarket(m, time.Now())
	fmt.Println("watching for odds updates (ctrl-c to stop)...")

	stream := paisa.NewOddsStream(a.cfg.API.WsURL, id, func(_ context.Context, u paisa.OddsUpdate) {
		fmt.Printf("%s  YES %sx / NO %sx\n",
			time.Now().Local().Format("15:04:05"),
			u.OddsYes.StringFixed(2),
			u.OddsNo.StringFixed(2),
		)
	}, a.logger)
	defer stream.Close()

	return stream.Run(ctx)
}

// ---------------------------------------------------------------------------
// Administration
// ---------------------------------------------------------------------------

// cmdAdmin dispatches the settlement workflow. Lock and resolve are
// deliberately separate commands: the operator must freeze a market, look
// at it, and only then issue the irreversible resolve.
func (a *App) cmdAdmin(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: predictctl admin <create|lock|resolve> ...")
	}

	user, err := requireUser(ctx, deps)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("admin commands require an administrator account")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		return a.cmdAdminCreate(ctx, deps, rest)
	case "lock":
		return a.cmdAdminLock(ctx, deps, rest)
	case "resolve":
		return a.cmdAdminResolve(ctx, deps, rest)
	default:
		return fmt.Errorf("unknown admin command %q", sub)
	}
}

func (a *App) cmdAdminCreate(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("admin create", flag.ContinueOnError)
	title := fs.String("title", "", "market title")
	description := fs.String("description", "", "market description")
	endTime := fs.String("end", "", "end time (RFC 3339)")
	category := fs.String("category", string(domain.CategorySports), "category (Sports or Esports)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" || *endTime == "" {
		return fmt.Errorf("usage: predictctl admin create -title T -end RFC3339 [-description D] [-category C]")
	}
	if _, err := time.Parse(time.RFC3339, *endTime); err != nil {
		return fmt.Errorf("invalid -end %q: %w", *endTime, err)
	}
	cat := domain.Category(*category)
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q (valid: Sports, Esports)", *category)
	}

	m, err := deps.Client.CreateMarket(ctx, paisa.CreateMarketRequest{
		Title:       *title,
		Description: *description,
		EndTime:     *endTime,
		Category:    cat,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created market #%d %q\n", m.ID, m.Title)
	return nil
}

func (a *App) cmdAdminLock(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predictctl admin lock <market-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market id %q", args[0])
	}

	m, err := deps.Settlement.Lock(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("market #%d %q is locked; inspect it, then resolve with:\n", m.ID, m.Title)
	fmt.Printf("  predictctl admin resolve %d <YES|NO>\n", m.ID)
	return nil
}

func (a *App) cmdAdminResolve(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: predictctl admin resolve <market-id> <YES|NO>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market id %q", args[0])
	}
	outcome := domain.Outcome(strings.ToUpper(args[1]))
	if !outcome.Valid() {
		return fmt.Errorf("invalid outcome %q (valid: YES, NO)", args[1])
	}

	// Resolution is irreversible and moves funds; require an explicit
	// confirmation naming the market.
	m, err := deps.Client.GetMarket(ctx, id)
	if err != nil {
		return err
	}
	answer, err := promptLine(fmt.Sprintf("resolve #%d %q as %s? This settles all bets and cannot be undone. [y/N] ", m.ID, m.Title, outcome))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Println("aborted")
		return nil
	}

	resolved, err := deps.Settlement.Resolve(ctx, id, outcome)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "market resolved via cli",
		slog.Int64("market_id", resolved.ID),
		slog.String("outcome", string(outcome)),
	)
	fmt.Printf("market #%d resolved as %s; winners are being credited\n", resolved.ID, outcome)
	return nil
}
