package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gfconnector/billing-console/internal/client"
	"github.com/gfconnector/billing-console/internal/config"
	"github.com/gfconnector/billing-console/internal/console"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/projection"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("invalid arguments")

// lockedWriter serializes output written from list refreshes and the prompt loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type app struct {
	api    client.API
	cfg    *config.Config
	in     *bufio.Scanner
	out    io.Writer
	toasts *console.ToastLog
}

func newApp(api client.API, cfg *config.Config, in io.Reader, out io.Writer) *app {
	w := &lockedWriter{w: out}
	return &app{
		api:    api,
		cfg:    cfg,
		in:     bufio.NewScanner(in),
		out:    w,
		toasts: console.NewToastLog(w),
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		if err := a.api.Logout(); err != nil {
			return err
		}
		a.toasts.Notify(console.ToastInfo, "Logged out")
		return nil
	case "health":
		if err := a.api.Health(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "ok")
		return nil
	case "list":
		return a.list(ctx, rest)
	case "browse":
		return a.browse(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "confirm":
		return a.confirm(ctx, rest)
	case "bulk-confirm":
		return a.bulkConfirm(ctx, rest)
	case "refund":
		return a.refund(ctx, rest)
	case "review":
		return a.review(ctx)
	case "invoice-pdf":
		return a.download(ctx, rest, "invoice", a.api.InvoicePDF)
	case "credit-note-pdf":
		return a.download(ctx, rest, "credit-note", a.api.CreditNotePDF)
	case "resend":
		return a.resend(ctx, rest)
	case "init-billing":
		res, err := a.api.InitializeBillingStatus(ctx)
		if err != nil {
			return err
		}
		a.toasts.Notify(console.ToastSuccess, fmt.Sprintf("%s (%d updated)", res.Message, res.UpdatedCount))
		return nil
	case "stats":
		s, err := a.api.DashboardStats(ctx)
		if err != nil {
			return err
		}
		return console.RenderStats(a.out, s)
	case "settings":
		s, err := client.LoadSettings(ctx, a.api)
		if err != nil {
			return err
		}
		return console.RenderSettings(a.out, s)
	case "watch":
		return a.watch(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", os.Getenv("CONSOLE_PASSWORD"), "password, defaults to $CONSOLE_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *pass == "" {
		return fmt.Errorf("%w: login needs -u and -p", errUsage)
	}
	if err := a.api.Login(ctx, *user, *pass); err != nil {
		a.toasts.Notify(console.ToastError, "Login failed")
		return err
	}
	a.toasts.Notify(console.ToastSuccess, "Logged in as "+*user)
	return nil
}

type listFlags struct {
	status, billing, search string
	min, max, from, to      string
	sort, dir               string
	page, size              int
}

func (f *listFlags) bind(fs *flag.FlagSet, defaultSize int) {
	fs.StringVar(&f.status, "status", "", "transaction status")
	fs.StringVar(&f.billing, "billing", "", "billing status")
	fs.StringVar(&f.search, "search", "", "id, external id or customer")
	fs.StringVar(&f.min, "min", "", "minimum amount")
	fs.StringVar(&f.max, "max", "", "maximum amount")
	fs.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	fs.StringVar(&f.sort, "sort", query.DefaultSortBy, "sort field")
	fs.StringVar(&f.dir, "dir", query.SortDesc, "asc or desc")
	fs.IntVar(&f.page, "page", 1, "page number, 1-based")
	fs.IntVar(&f.size, "size", defaultSize, "page size")
}

// apply pushes the flags into the controller. Page goes last since every filter resets it.
func (f *listFlags) apply(c *console.ListController) error {
	lo, err := optDecimal(f.min)
	if err != nil {
		return err
	}
	hi, err := optDecimal(f.max)
	if err != nil {
		return err
	}
	from, err := optDate(f.from)
	if err != nil {
		return err
	}
	to, err := optDate(f.to)
	if err != nil {
		return err
	}

	c.SetPageSize(f.size)
	c.SetStatus(model.TransactionStatus(strings.ToUpper(f.status)))
	c.SetBillingStatus(model.BillingStatus(strings.ToLower(f.billing)))
	c.SetAmountRange(lo, hi)
	c.SetDateRange(from, to)
	c.SetSort(f.sort, f.dir)
	if f.search != "" {
		c.SetSearch(f.search)
		c.CommitSearch()
	}
	if f.page > 1 {
		c.SetPage(f.page - 1)
	}
	return nil
}

func optDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", errUsage, s)
	}
	return &d, nil
}

func optDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t := query.ParseTime(s)
	if t == nil {
		return nil, fmt.Errorf("%w: date %q", errUsage, s)
	}
	return t, nil
}

func (a *app) newList() *console.ListController {
	return console.NewListController(a.api, a.cfg.ConsolePageSize, a.cfg.ConsoleSearchDebounce)
}

func (a *app) list(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var f listFlags
	f.bind(fs, a.cfg.ConsolePageSize)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := a.newList()
	defer c.Close()
	if err := f.apply(c); err != nil {
		return err
	}
	c.Wait()
	return console.RenderListState(a.out, c.State(), nil)
}

func (a *app) idArg(name string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s needs exactly one transaction id", errUsage, name)
	}
	return args[0], nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := a.idArg("show", args)
	if err != nil {
		return err
	}
	t, err := a.api.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	return console.RenderDetail(a.out, t)
}

func (a *app) confirm(ctx context.Context, args []string) error {
	id, err := a.idArg("confirm", args)
	if err != nil {
		return err
	}
	res, err := a.api.ConfirmBilling(ctx, id)
	if err != nil {
		a.toasts.Notify(console.ToastError, "Failed to confirm billing: "+err.Error())
		return err
	}
	msg := "Billing confirmed for " + id
	if res.DocumentNumber != "" {
		msg += ", invoice " + res.DocumentNumber
	}
	a.toasts.Notify(console.ToastSuccess, msg)
	return nil
}

func (a *app) bulkConfirm(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: bulk-confirm needs at least one transaction id", errUsage)
	}
	res := console.NewBulkConfirmer(a.api, a.cfg.ConsoleBulkWorkers, a.toasts).Run(ctx, console.NewSelection(args...))
	for id, err := range res.Errors {
		fmt.Fprintf(a.out, "  %s: %v\n", id, err)
	}
	if res.Failed > 0 {
		return fmt.Errorf("bulk confirmation: %s", res.Summary())
	}
	return nil
}

func (a *app) refund(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refund", flag.ContinueOnError)
	reason := fs.String("reason", "", "refund reason, required")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.idArg("refund", fs.Args())
	if err != nil {
		return err
	}
	if strings.TrimSpace(*reason) == "" {
		return fmt.Errorf("%w: a refund reason is required", errUsage)
	}

	res, err := a.api.Refund(ctx, id, *reason)
	if err != nil {
		a.toasts.Notify(console.ToastError, "Refund failed: "+err.Error())
		return err
	}
	msg := "Refund processed for " + id
	if res.DocumentNumber != "" {
		msg += ", credit note " + res.DocumentNumber
	}
	a.toasts.Notify(console.ToastSuccess, msg)
	return nil
}

func (a *app) download(ctx context.Context, args []string, kind string, fetch func(context.Context, string) ([]byte, error)) error {
	fs := flag.NewFlagSet(kind+"-pdf", flag.ContinueOnError)
	out := fs.String("out", "", "target file, defaults to <kind>-<id>.pdf")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.idArg(kind+"-pdf", fs.Args())
	if err != nil {
		return err
	}

	pdf, err := fetch(ctx, id)
	if err != nil {
		a.toasts.Notify(console.ToastError, "Download failed: "+err.Error())
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("%s-%s.pdf", kind, id)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return err
	}
	a.toasts.Notify(console.ToastSuccess, fmt.Sprintf("Saved %s (%d bytes)", path, len(pdf)))
	return nil
}

func (a *app) resend(ctx context.Context, args []string) error {
	id, err := a.idArg("resend", args)
	if err != nil {
		return err
	}
	if err := a.api.ResendInvoice(ctx, id); err != nil {
		a.toasts.Notify(console.ToastError, "Resend failed: "+err.Error())
		return err
	}
	a.toasts.Notify(console.ToastSuccess, "Invoice resent for "+id)
	return nil
}

func (a *app) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) review(ctx context.Context) error {
	wf := console.NewConfirmationWorkflow(a.api, a.toasts, func() {
		fmt.Fprintln(a.out, "All pending transactions reviewed.")
	})
	if err := wf.Start(ctx); err != nil {
		return err
	}

	for {
		if err := console.RenderReview(a.out, wf); err != nil {
			return err
		}
		if wf.State() != console.ReviewReviewing {
			return nil
		}
		line, ok := a.readLine()
		if !ok {
			return nil
		}
		switch line {
		case "c":
			// a failed confirmation is already reported and keeps the transaction in place
			_ = wf.Confirm(ctx)
		case "n":
			wf.Next()
		case "p":
			wf.Previous()
		case "q":
			return nil
		}
	}
}

const browseHelp = `n/p next/previous page, s <text> search, status <S|->, billing <B|->,
sort <field> [asc|desc], size <n>, x <id> toggle selection, all select pending on page,
c confirm selected, clear, r refresh, q quit`

// browse is the interactive list: filters refetch, the pending count is polled in the
// background and selected rows can be confirmed in bulk.
func (a *app) browse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	var f listFlags
	f.bind(fs, a.cfg.ConsolePageSize)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel := console.NewSelection()
	c := a.newList()
	defer c.Close()
	c.OnChange(func(s console.ListState) {
		_ = console.RenderListState(a.out, s, sel)
	})

	poller := console.NewPendingPoller(a.api, a.cfg.ConsolePollInterval, nil)
	poller.Start()
	defer poller.Stop()

	bulk := console.NewBulkConfirmer(a.api, a.cfg.ConsoleBulkWorkers, a.toasts, c.Refresh)

	if err := f.apply(c); err != nil {
		return err
	}
	c.Refresh()
	fmt.Fprintln(a.out, browseHelp)

	for ctx.Err() == nil {
		line, ok := a.readLine()
		if !ok {
			return nil
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		c.Wait()
		state := c.State()
		switch cmd {
		case "q":
			return nil
		case "n":
			if state.Params.Page+1 < state.TotalPages {
				c.SetPage(state.Params.Page + 1)
			}
		case "p":
			if state.Params.Page > 0 {
				c.SetPage(state.Params.Page - 1)
			}
		case "s":
			c.SetSearch(arg)
		case "status":
			c.SetStatus(model.TransactionStatus(strings.ToUpper(clearDash(arg))))
		case "billing":
			c.SetBillingStatus(model.BillingStatus(strings.ToLower(clearDash(arg))))
		case "sort":
			by, dir, _ := strings.Cut(arg, " ")
			c.SetSort(by, strings.TrimSpace(dir))
		case "size":
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				fmt.Fprintln(a.out, "size must be a positive number")
				continue
			}
			c.SetPageSize(n)
		case "x":
			sel.Toggle(arg)
			_ = console.RenderListState(a.out, c.State(), sel)
		case "all":
			for _, t := range state.Items {
				if projection.Project(t).Allows(projection.ActionConfirmBilling) {
					sel.Add(t.ID)
				}
			}
			_ = console.RenderListState(a.out, c.State(), sel)
		case "c":
			if sel.Len() == 0 {
				fmt.Fprintln(a.out, "nothing selected")
				continue
			}
			bulk.Run(ctx, sel)
		case "clear":
			c.ClearFilters()
		case "r":
			c.Refresh()
		case "":
		default:
			fmt.Fprintln(a.out, browseHelp)
		}
		if n, known := poller.Count(); known {
			fmt.Fprintf(a.out, "(%d pending billing)\n", n)
		}
	}
	return nil
}

func clearDash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

func (a *app) watch(ctx context.Context) error {
	last := -1
	poller := console.NewPendingPoller(a.api, a.cfg.ConsolePollInterval, func(n int) {
		if n != last {
			a.toasts.Notify(console.ToastInfo, fmt.Sprintf("%d transactions pending billing", n))
			last = n
		}
	})
	poller.Start()
	<-ctx.Done()
	poller.Stop()
	return nil
}
