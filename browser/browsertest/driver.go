// Package browsertest provides an in-memory browser.Driver backed by static
// HTML documents.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// FormPage renders a search form carrying the given element ids.
func FormPage(buttonID string, fieldIDs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form>`)
	for _, id := range fieldIDs {
		fmt.Fprintf(&b, `<input type="text" id="%s">`, id)
	}
	fmt.Fprintf(&b, `<button type="submit" id="%s">Search</button>`, buttonID)
	b.WriteString(`</form></body></html>`)
	return b.String()
}

// Driver serves Form after navigation and Results once SubmitSelector is
// clicked. Waits succeed immediately when the selector matches the current
// document and fail with context.DeadlineExceeded otherwise.
type Driver struct {
	Form           string
	Results        string
	SubmitSelector string

	// NavigateFailures makes the first N Navigate calls fail.
	NavigateFailures int
	// Fail forces an error from the named method, e.g. "Click" or "SendKeys".
	Fail map[string]error
	// FailSelector forces an error for any call on the given selector.
	FailSelector map[string]error

	mu        sync.Mutex
	current   string
	values    map[string]string
	calls     []string
	navigates int
	quits     int
}

func (d *Driver) record(method, arg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, method+" "+arg)
	if err := d.Fail[method]; err != nil {
		return err
	}
	if err := d.FailSelector[arg]; err != nil {
		return err
	}
	return nil
}

func (d *Driver) match(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	html := d.current
	d.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return context.DeadlineExceeded
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.record("Navigate", url); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigates++
	if d.navigates <= d.NavigateFailures {
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	d.current = d.Form
	return nil
}

func (d *Driver) WaitVisible(ctx context.Context, selector string) error {
	if err := d.record("WaitVisible", selector); err != nil {
		return err
	}
	return d.match(ctx, selector)
}

func (d *Driver) WaitPresent(ctx context.Context, selector string) error {
	if err := d.record("WaitPresent", selector); err != nil {
		return err
	}
	return d.match(ctx, selector)
}

func (d *Driver) WaitEnabled(ctx context.Context, selector string) error {
	if err := d.record("WaitEnabled", selector); err != nil {
		return err
	}
	return d.match(ctx, selector)
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := d.record("Click", selector); err != nil {
		return err
	}
	if err := d.match(ctx, selector); err != nil {
		return err
	}
	if selector == d.SubmitSelector {
		d.mu.Lock()
		d.current = d.Results
		d.mu.Unlock()
	}
	return nil
}

func (d *Driver) ScrollIntoView(ctx context.Context, selector string) error {
	if err := d.record("ScrollIntoView", selector); err != nil {
		return err
	}
	return d.match(ctx, selector)
}

func (d *Driver) Clear(ctx context.Context, selector string) error {
	if err := d.record("Clear", selector); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.values == nil {
		d.values = make(map[string]string)
	}
	d.values[selector] = ""
	return nil
}

func (d *Driver) SendKeys(ctx context.Context, selector, value string) error {
	if err := d.record("SendKeys", selector); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.values == nil {
		d.values = make(map[string]string)
	}
	d.values[selector] += value
	return nil
}

func (d *Driver) OuterHTML(ctx context.Context) (string, error) {
	if err := d.record("OuterHTML", ""); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return d.Fail["Quit"]
}

// Value returns what was typed into selector.
func (d *Driver) Value(selector string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[selector]
}

// Calls returns every recorded call as "Method selector".
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Quits returns how many times Quit was called.
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

// Navigations returns how many times Navigate was called.
func (d *Driver) Navigations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.navigates
}
