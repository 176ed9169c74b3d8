// Package tui is the interactive Bubble Tea front end. It never edits
// items itself: every key press goes through the shopping.List, and the
// screen redraws from the snapshots the list publishes.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/shopping"
)

// Options set the initial view ordering.
type Options struct {
	Sort  model.SortField
	Order model.SortDirection
}

// listItem adapts a ShoppingItem to bubbles/list.Item.
type listItem struct{ model.ShoppingItem }

func (i listItem) FilterValue() string { return i.Name }

// snapshotMsg carries a snapshot published by the list.
type snapshotMsg []model.ShoppingItem

// errMsg reports a failed mutation.
type errMsg struct{ err error }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	line := mutedStyle.Render(boxToBuy) + " " + it.Name
	if it.Bought {
		line = successStyle.Render(boxBought) + " " + boughtStyle.Render(it.Name)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

var (
	toggleBind = key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "bought"))
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	sortBind   = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort field"))
	orderBind  = key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order"))
)

// Model is the Bubble Tea model over a shopping.List.
type Model struct {
	ctx     context.Context
	ls      *shopping.List
	updates <-chan []model.ShoppingItem

	items []model.ShoppingItem // last published snapshot, store order
	field model.SortField
	dir   model.SortDirection

	list list.Model

	// Inline add
	adding bool
	ti     textinput.Model
	addErr string

	err error // last failed mutation, shown until the next key press

	width, height int
}

// New builds the model. updates is normally the channel returned by
// ls.Subscribe.
func New(ctx context.Context, ls *shopping.List, updates <-chan []model.ShoppingItem, opt Options) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	extra := func() []key.Binding { return []key.Binding{toggleBind, addBind, deleteBind, sortBind, orderBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item..."
	ti.CharLimit = 200

	m := Model{
		ctx:     ctx,
		ls:      ls,
		updates: updates,
		field:   opt.Sort,
		dir:     opt.Order,
		list:    l,
		ti:      ti,
		width:   80,
		height:  24,
	}
	m.setItems(ls.Snapshot())
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, ls *shopping.List, opt Options) error {
	updates, cancel := ls.Subscribe()
	defer cancel()

	p := tea.NewProgram(New(ctx, ls, updates, opt), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func waitForSnapshot(updates <-chan []model.ShoppingItem) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (m Model) mutate(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(m.ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// selected returns the highlighted item, if any.
func (m Model) selected() (model.ShoppingItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.ShoppingItem, ok
}

// setItems stores a snapshot and redraws the sorted view, keeping the
// cursor on the same item when it still exists.
func (m *Model) setItems(items []model.ShoppingItem) tea.Cmd {
	keep, hadSel := m.selected()
	m.items = items

	view := model.Sort(items, m.field, m.dir)
	li := make([]list.Item, 0, len(view))
	sel := -1
	for i, it := range view {
		li = append(li, listItem{it})
		if hadSel && it.ID == keep.ID {
			sel = i
		}
	}
	cmd := m.list.SetItems(li)
	if sel >= 0 {
		m.list.Select(sel)
	}

	b, p := model.Counts(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d   %s",
		titleStyle.Render("Shopping list"),
		successStyle.Render("✔"), b,
		pendingStyle.Render("•"), p,
		accentStyle.Render("Total"), len(items),
		mutedStyle.Render(fmt.Sprintf("(%s, %s)", m.field, m.dir)),
	)
	return cmd
}

// ViewItems returns the items in the order they are shown.
func (m Model) ViewItems() []model.ShoppingItem {
	out := make([]model.ShoppingItem, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if li, ok := it.(listItem); ok {
			out = append(out, li.ShoppingItem)
		}
	}
	return out
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return waitForSnapshot(m.updates) }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		cmd := m.setItems(msg)
		return m, tea.Batch(cmd, waitForSnapshot(m.updates))
	case errMsg:
		m.err = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		m.err = nil
		switch km.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			if it, ok := m.selected(); ok {
				return m, m.mutate(func(ctx context.Context) error { return m.ls.ToggleBoughtByID(ctx, it.ID) })
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				return m, m.mutate(func(ctx context.Context) error { return m.ls.DeleteItemByID(ctx, it.ID) })
			}
			return m, nil
		case "a":
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.resize()
			return m, m.ti.Focus()
		case "s":
			m.field = m.field.Next()
			return m, m.setItems(m.items)
		case "o":
			m.dir = m.dir.Flip()
			return m, m.setItems(m.items)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				m.addErr = "Name cannot be empty"
				return m, nil
			}
			m.stopAdding()
			return m, m.mutate(func(ctx context.Context) error { return m.ls.AddItem(ctx, name) })
		case "esc":
			m.stopAdding()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) stopAdding() {
	m.adding = false
	m.addErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

// View implements tea.Model.
func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		title := "Add item"
		if m.addErr != "" {
			title += " - " + errorStyle.Render(m.addErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.err != nil {
		content += "\n" + errorStyle.Render("✖ "+m.err.Error())
	}
	return frameStyle.Render(content)
}
