package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
	"github.com/larderhq/larder-go/internal/util"
)

type shoppingListFlags struct {
	Search         string
	Category       string
	DueWithin      time.Duration
	IncludeChecked bool
	Grouped        bool
}

func parseShoppingListFlags(args []string) (shoppingListFlags, error) {
	var opts shoppingListFlags
	fs := flag.NewFlagSet("shopping", flag.ContinueOnError)
	fs.StringVar(&opts.Search, "search", "", "substring match on item name")
	fs.StringVar(&opts.Category, "category", "", "exact category match")
	fs.DurationVar(&opts.DueWithin, "due-within", 0, "only items expiring within this window (e.g. 72h)")
	fs.BoolVar(&opts.IncludeChecked, "all", false, "include checked-off items")
	fs.BoolVar(&opts.Grouped, "grouped", false, "group output by category")
	err := fs.Parse(args)
	return opts, err
}

func (f shoppingListFlags) query() string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.DueWithin > 0 {
		q.Set("due_within", f.DueWithin.String())
	}
	if f.IncludeChecked {
		q.Set("include_checked", "true")
	}
	if encoded := q.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

func runShoppingList(cmdCtx *commandContext, args []string) error {
	opts, err := parseShoppingListFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()
	client := newAgentClient(cmdCtx)

	if opts.Grouped {
		var resp struct {
			Sections []model.ShoppingSection `json:"sections"`
		}
		if callErr := client.call(ctx, http.MethodGet, "/api/shopping/grouped"+opts.query(), nil, &resp); callErr != nil {
			return callErr
		}
		return renderSections(resp.Sections)
	}

	var resp struct {
		Items []model.ShoppingItem `json:"items"`
		Count int                  `json:"count"`
	}
	if callErr := client.call(ctx, http.MethodGet, "/api/shopping"+opts.query(), nil, &resp); callErr != nil {
		return callErr
	}
	if resp.Count == 0 {
		return writeln(os.Stdout, "(shopping list is empty)")
	}
	return renderItems(resp.Items)
}

func renderItems(items []model.ShoppingItem) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tITEM\tCATEGORY\tQTY\tEXPIRES IN\tCHECKED"); err != nil {
		return err
	}
	for i := range items {
		if err := renderItemRow(w, &items[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func renderItemRow(w *tabwriter.Writer, item *model.ShoppingItem) error {
	qty := strconv.Itoa(item.Quantity)
	if item.Unit != nil {
		qty += " " + *item.Unit
	}

	expires := "—"
	if item.ExpiresAt != nil {
		expires = util.FormatProcessingDuration(time.Until(*item.ExpiresAt))
	}

	checked := ""
	if item.Checked {
		checked = "x"
	}

	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		item.ID, item.Name, item.Category, qty, expires, checked)
	return err
}

func renderSections(sections []model.ShoppingSection) error {
	if len(sections) == 0 {
		return writeln(os.Stdout, "(shopping list is empty)")
	}
	for _, section := range sections {
		if err := writef(os.Stdout, "\n%s (%d)\n", section.Category, section.Count); err != nil {
			return err
		}
		if err := renderItems(section.Items); err != nil {
			return err
		}
	}
	return nil
}

func runShoppingAdd(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("shopping-add", flag.ContinueOnError)
	name := fs.String("name", "", "item name (required)")
	category := fs.String("category", "", "category bucket (defaults to other)")
	qty := fs.Int("qty", 1, "quantity")
	unit := fs.String("unit", "", "unit of measure")
	expires := fs.Duration("expires-in", 0, "expiry window from now (e.g. 72h)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	body := map[string]any{"name": *name, "quantity": *qty}
	if *category != "" {
		body["category"] = *category
	}
	if *unit != "" {
		body["unit"] = *unit
	}
	if *expires > 0 {
		body["expires_at"] = time.Now().Add(*expires).Format(time.RFC3339)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var item model.ShoppingItem
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodPost, "/api/shopping", body, &item); err != nil {
		return err
	}
	return writef(os.Stdout, "added %s (%s) as %s\n", item.Name, item.Category, item.ID)
}

func runShoppingToggle(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: larderctl shopping-toggle <item-id>")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var item model.ShoppingItem
	path := "/api/shopping/" + url.PathEscape(args[0]) + "/toggle"
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodPost, path, nil, &item); err != nil {
		return err
	}

	state := "unchecked"
	if item.Checked {
		state = "checked"
	}
	return writef(os.Stdout, "%s is now %s\n", item.Name, state)
}

func runShoppingRemove(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: larderctl shopping-remove <item-id>")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	path := "/api/shopping/" + url.PathEscape(args[0])
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return writeln(os.Stdout, "removed")
}
