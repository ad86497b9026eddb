// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pwdriver drives the puzzle page with playwright.
package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
)

// Options configures the browser.
type Options struct {
	// RemoteURL is the CDP endpoint of a running Chromium. When empty a
	// local Chromium is launched.
	RemoteURL string
	Headless  bool
	Logger    *zap.Logger
}

// Driver implements solver.Driver with playwright.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	logger  *zap.Logger

	mu     sync.Mutex
	dialog chan string
}

var _ solver.Driver = (*Driver)(nil)

// New starts playwright and opens a page in a fresh browser context.
func New(opts Options) (*Driver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	d := &Driver{pw: pw, logger: logger}

	if opts.RemoteURL != "" {
		d.browser, err = pw.Chromium.ConnectOverCDP(opts.RemoteURL)
	} else {
		d.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
		})
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	if d.bctx, err = d.browser.NewContext(); err != nil {
		d.Close()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	if d.page, err = d.bctx.NewPage(); err != nil {
		d.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	d.page.OnDialog(d.onDialog)
	d.page.OnConsole(func(m playwright.ConsoleMessage) {
		if m.Type() == "error" {
			d.logger.Warn("console error", zap.String("text", m.Text()))
		}
	})
	return d, nil
}

// onDialog accepts every dialog and hands its message to the pending
// subscription, if any.
func (d *Driver) onDialog(dialog playwright.Dialog) {
	msg := dialog.Message()
	d.logger.Debug("dialog opened", zap.String("type", dialog.Type()), zap.String("message", msg))
	d.mu.Lock()
	if d.dialog != nil {
		d.dialog <- msg
		close(d.dialog)
		d.dialog = nil
	}
	d.mu.Unlock()
	if err := dialog.Accept(); err != nil {
		d.logger.Warn("accept dialog", zap.Error(err))
	}
}

// timeout converts the deadline of ctx to a playwright timeout in
// milliseconds. Zero disables the timeout.
func timeout(ctx context.Context) *float64 {
	if dl, ok := ctx.Deadline(); ok {
		ms := float64(time.Until(dl).Milliseconds())
		if ms < 1 {
			ms = 1
		}
		return playwright.Float(ms)
	}
	return playwright.Float(0)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   timeout(ctx),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.Title()
}

func (d *Driver) SetField(ctx context.Context, id, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.page.Locator("#"+id).Fill(value, playwright.LocatorFillOptions{Timeout: timeout(ctx)}); err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.page.Locator("#"+id).Click(playwright.LocatorClickOptions{Timeout: timeout(ctx)}); err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	return nil
}

func (d *Driver) TextList(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	texts, err := d.page.Locator(selector).AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	return texts, nil
}

// ExpectDialog subscribes to the next dialog. A newer subscription replaces
// an older one that has not fired yet.
func (d *Driver) ExpectDialog(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 1)
	d.mu.Lock()
	if d.dialog != nil {
		close(d.dialog)
	}
	d.dialog = ch
	d.mu.Unlock()
	context.AfterFunc(ctx, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.dialog == ch {
			close(ch)
			d.dialog = nil
		}
	})
	return ch, nil
}

// Close closes the page, the browser and stops playwright.
func (d *Driver) Close() error {
	if d.page != nil {
		d.page.Close()
	}
	if d.bctx != nil {
		d.bctx.Close()
	}
	if d.browser != nil {
		d.browser.Close()
	}
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}
