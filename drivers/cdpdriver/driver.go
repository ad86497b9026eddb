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

// Package cdpdriver drives the puzzle page with chromedp.
package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
)

// Options configures the browser.
type Options struct {
	// RemoteURL is the devtools url of a running browser. When empty a
	// local browser is started.
	RemoteURL string
	Headless  bool
	Logger    *zap.Logger
}

// Driver implements solver.Driver over the Chrome DevTools Protocol.
type Driver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger

	mu            sync.Mutex
	dialog        chan string
	consoleErrors []string
}

var _ solver.Driver = (*Driver)(nil)

// New starts or connects to a browser and opens a tab.
func New(ctx context.Context, opts Options) (*Driver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", opts.Headless))
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}
	sugar := logger.Sugar()
	bctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Infof),
		chromedp.WithErrorf(sugar.Errorf),
	)
	d := &Driver{
		ctx:         bctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}
	chromedp.ListenTarget(bctx, d.onEvent)

	if err := chromedp.Run(bctx, network.ClearBrowserCookies()); err != nil {
		d.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return d, nil
}

func (d *Driver) onEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		d.logger.Debug("dialog opened", zap.String("type", string(ev.Type)), zap.String("message", ev.Message))
		d.mu.Lock()
		if d.dialog != nil {
			d.dialog <- ev.Message
			close(d.dialog)
			d.dialog = nil
		}
		d.mu.Unlock()
		// Every dialog is accepted so that it never blocks the page.
		go func() {
			if err := chromedp.Run(d.ctx, page.HandleJavaScriptDialog(true)); err != nil {
				d.logger.Warn("accept dialog", zap.Error(err))
			}
		}()
	case *runtime.EventConsoleAPICalled:
		if ev.Type != runtime.APITypeError {
			return
		}
		args := make([]string, len(ev.Args))
		for i, arg := range ev.Args {
			args[i] = string(arg.Value)
		}
		text := strings.Join(args, " ")
		d.logger.Warn("console error", zap.String("text", text))
		d.mu.Lock()
		d.consoleErrors = append(d.consoleErrors, text)
		d.mu.Unlock()
	case *runtime.EventExceptionThrown:
		d.logger.Warn("javascript exception", zap.String("text", ev.ExceptionDetails.Error()))
		d.mu.Lock()
		d.consoleErrors = append(d.consoleErrors, ev.ExceptionDetails.Error())
		d.mu.Unlock()
	}
}

// ConsoleErrors returns the console errors seen so far.
func (d *Driver) ConsoleErrors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.consoleErrors...)
}

// run executes actions in the tab and stops when ctx is done.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	cctx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(cctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// setValueJS sets the value of an input the way typing does, so that
// frameworks tracking the value see the change.
const setValueJS = `(function(id, value) {
	const el = document.getElementById(id);
	if (!el) {
		return false;
	}
	const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
	setter.call(el, value);
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s, %s)`

func (d *Driver) SetField(ctx context.Context, id, value string) error {
	var ok bool
	err := d.run(ctx,
		chromedp.WaitVisible("#"+id, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(setValueJS, jsString(id), jsString(value)), &ok),
	)
	if err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("#%s: no such input", id)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, id string) error {
	if err := d.run(ctx, chromedp.Click("#"+id, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	return nil
}

func (d *Driver) TextList(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.textContent)`, jsString(selector))
	if err := d.run(ctx, chromedp.Evaluate(js, &texts)); err != nil {
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

// Close closes the tab and releases the browser.
func (d *Driver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.cancelAlloc()
	return err
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
