package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/shopping"
	"github.com/idilsaglam/shoplist/internal/tui"
	"github.com/idilsaglam/shoplist/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options tune output behavior from root flags and config.
type Options struct {
	Group bool // list grouped by to-buy/bought

	// Default view; positions given to bought/rm refer to it.
	Sort  model.SortField
	Order model.SortDirection

	Out io.Writer
	Err io.Writer
}

func (o *Options) defaults() {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
}

// Run dispatches subcommands against list and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, list *shopping.List, args []string, opt Options) int {
	opt.defaults()
	if len(args) == 0 {
		PrintHelp(opt.Out)
		return ExitUsage
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Out)
		return ExitOK

	case "ls", "list":
		return doList(list, a, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail(opt.Err, "usage: shoplist add <name...>")
			return ExitUsage
		}
		return doAdd(ctx, list, strings.Join(a, " "), opt)

	case "bought", "toggle":
		n, code := positionArg(cmd, a, opt)
		if code != ExitOK {
			return code
		}
		return doToggle(ctx, list, n, opt)

	case "rm":
		n, code := positionArg(cmd, a, opt)
		if code != ExitOK {
			return code
		}
		return doRemove(ctx, list, n, opt)

	case "clear-bought":
		return doClearBought(ctx, list, opt)

	case "tui":
		err := tui.Run(ctx, list, tui.Options{Sort: opt.Sort, Order: opt.Order})
		if err != nil {
			ui.Fail(opt.Err, "tui: "+err.Error())
			return ExitError
		}
		return ExitOK
	}

	ui.Fail(opt.Err, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Err)
	PrintHelp(opt.Err)
	return ExitUsage
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `shoplist - a tiny shopping list

Usage:
  shoplist [flags] <subcommand> [args]

Subcommands:
  add <name...>      Add an item (name can be multiple words)
  ls [-sort name|added] [-order asc|desc]
                     List items
  bought <n>         Toggle bought for the item at position n
  rm <n>             Remove the item at position n
  clear-bought       Remove every bought item
  tui                Interactive list

Positions are 1-based and refer to the default view (-sort/-order
root flags), i.e. what a plain "shoplist ls" prints.

Examples:
  shoplist add "Oat milk"
  shoplist ls -sort name
  shoplist bought 2
  shoplist rm 3
`)
}

func positionArg(cmd string, a []string, opt Options) (int, int) {
	if len(a) != 1 {
		ui.Fail(opt.Err, "usage: shoplist "+cmd+" <n>")
		return 0, ExitUsage
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		ui.Fail(opt.Err, cmd+": not a number: "+a[0])
		return 0, ExitUsage
	}
	return n, ExitOK
}

// -------------- subcommand impls ----------------

func doList(list *shopping.List, args []string, opt Options) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(opt.Err)
	sortFlag := fs.String("sort", opt.Sort.String(), "order by name|added")
	orderFlag := fs.String("order", opt.Order.String(), "asc|desc")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	field, err := model.ParseSortField(*sortFlag)
	if err != nil {
		ui.Fail(opt.Err, "ls: "+err.Error())
		return ExitUsage
	}
	dir, err := model.ParseSortDirection(*orderFlag)
	if err != nil {
		ui.Fail(opt.Err, "ls: "+err.Error())
		return ExitUsage
	}

	items := model.Sort(list.Snapshot(), field, dir)
	t := ui.Current()

	// Header + progress
	b, p := model.Counts(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Shopping list"),
		ui.C(t.Success, t.SymBought), b,
		ui.C(t.Pending, t.SymPending), p,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(b, b+p, 28)))
	lines = append(lines, ui.C(t.Muted, fmt.Sprintf("sorted by %s, %s", field, dir)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `shoplist add \"Milk\"`"))
	ui.Panel(opt.Out, lines)
	return ExitOK
}

func doAdd(ctx context.Context, list *shopping.List, name string, opt Options) int {
	name = strings.TrimSpace(name)
	if name == "" {
		ui.Fail(opt.Err, "add: empty name")
		return ExitUsage
	}
	if err := list.AddItem(ctx, name); err != nil {
		ui.Fail(opt.Err, "add: "+err.Error())
		return ExitError
	}
	ui.OK(opt.Out, "added "+name)
	return ExitOK
}

// resolve maps a 1-based position in the default view to an item.
func resolve(list *shopping.List, pos int, opt Options) (model.ShoppingItem, int) {
	view := model.Sort(list.Snapshot(), opt.Sort, opt.Order)
	if pos < 1 || pos > len(view) {
		ui.Fail(opt.Err, fmt.Sprintf("index out of range: have %d, got %d", len(view), pos))
		fmt.Fprintln(opt.Err, ui.Dim("Hint: run `shoplist ls` to see valid positions"))
		return model.ShoppingItem{}, ExitUsage
	}
	return view[pos-1], ExitOK
}

func doToggle(ctx context.Context, list *shopping.List, pos int, opt Options) int {
	it, code := resolve(list, pos, opt)
	if code != ExitOK {
		return code
	}
	if err := list.ToggleBoughtByID(ctx, it.ID); err != nil {
		return failMutation(opt, "bought", err)
	}
	if it.Bought {
		ui.OK(opt.Out, "back on the list: "+it.Name)
	} else {
		ui.OK(opt.Out, "bought: "+it.Name)
	}
	return ExitOK
}

func doRemove(ctx context.Context, list *shopping.List, pos int, opt Options) int {
	it, code := resolve(list, pos, opt)
	if code != ExitOK {
		return code
	}
	if err := list.DeleteItemByID(ctx, it.ID); err != nil {
		return failMutation(opt, "rm", err)
	}
	ui.OK(opt.Out, "removed "+it.Name)
	return ExitOK
}

func doClearBought(ctx context.Context, list *shopping.List, opt Options) int {
	removed := 0
	for _, it := range list.Snapshot() {
		if !it.Bought {
			continue
		}
		if err := list.DeleteItemByID(ctx, it.ID); err != nil {
			return failMutation(opt, "clear-bought", err)
		}
		removed++
	}
	ui.OK(opt.Out, fmt.Sprintf("removed %d bought item(s)", removed))
	return ExitOK
}

func failMutation(opt Options, cmd string, err error) int {
	ui.Fail(opt.Err, cmd+": "+err.Error())
	if errors.Is(err, shopping.ErrIndexOutOfRange) || errors.Is(err, shopping.ErrItemNotFound) {
		return ExitUsage
	}
	return ExitError
}

// -------------- rendering helpers --------------

func flatLines(items []model.ShoppingItem, first int) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "nothing to buy")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", first+i)
		box, color := t.BoxToBuy, t.Muted
		if it.Bought {
			box, color = t.BoxBought, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.Dim(idx), ui.C(color, box), ui.Truncate(it.Name, 80)))
	}
	return out
}

// groupLines keeps the view's numbering so positions still match
// `bought`/`rm` when the default view is the same.
func groupLines(items []model.ShoppingItem) []string {
	t := ui.Current()
	var lines []string
	section := func(title string, bought bool) {
		lines = append(lines, ui.C(t.Accent, title))
		n := 0
		for i, it := range items {
			if it.Bought == bought {
				lines = append(lines, flatLines([]model.ShoppingItem{it}, i+1)...)
				n++
			}
		}
		if n == 0 {
			lines = append(lines, ui.C(t.Muted, "(none)"))
		}
	}
	section("To buy", false)
	lines = append(lines, "")
	section("Bought", true)
	return lines
}
