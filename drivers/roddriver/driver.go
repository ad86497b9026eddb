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

// Package roddriver drives the puzzle page with go-rod.
package roddriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
)

// Options configures the browser.
type Options struct {
	// RemoteURL is the debugger url of a running browser. When empty a
	// local browser is launched.
	RemoteURL string
	Headless  bool
	Logger    *zap.Logger
}

// Driver implements solver.Driver with go-rod.
type Driver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger

	mu      sync.Mutex
	pending context.CancelFunc
}

var _ solver.Driver = (*Driver)(nil)

// New launches or connects to a browser and opens a blank page.
func New(ctx context.Context, opts Options) (*Driver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{logger: logger}

	controlURL := opts.RemoteURL
	if controlURL == "" {
		d.launcher = launcher.New().Headless(opts.Headless)
		u, err := d.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}
	logger.Debug("connecting to browser", zap.String("url", controlURL))

	d.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := d.browser.Connect(); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	page, err := d.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	d.page = page
	return d, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// setValueJS sets the value of an input the way typing does, so that
// frameworks tracking the value see the change.
const setValueJS = `function(value) {
	const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
	setter.call(this, value);
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

func (d *Driver) SetField(ctx context.Context, id, value string) error {
	el, err := d.page.Context(ctx).Element("#" + id)
	if err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	if _, err := el.Eval(setValueJS, value); err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, id string) error {
	el, err := d.page.Context(ctx).Element("#" + id)
	if err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("#%s: %w", id, err)
	}
	return nil
}

func (d *Driver) TextList(ctx context.Context, selector string) ([]string, error) {
	res, err := d.page.Context(ctx).Eval(`(sel) => Array.from(document.querySelectorAll(sel)).map(e => e.textContent)`, selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	items := res.Value.Arr()
	texts := make([]string, len(items))
	for i, v := range items {
		texts[i] = v.Str()
	}
	return texts, nil
}

// ExpectDialog waits in the background for the next dialog and accepts it.
// A newer subscription cancels an older one. The dialog is accepted on the
// driver's page before the message is delivered, so it stays answered after
// ctx ends.
func (d *Driver) ExpectDialog(ctx context.Context) (<-chan string, error) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.pending != nil {
		d.pending()
	}
	d.pending = cancel
	d.mu.Unlock()

	wait, _ := d.page.Context(ctx).HandleDialog()
	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer cancel()
		ev := wait()
		if ctx.Err() != nil {
			return
		}
		d.logger.Debug("dialog opened", zap.String("type", string(ev.Type)), zap.String("message", ev.Message))
		if err := (proto.PageHandleJavaScriptDialog{Accept: true}).Call(d.page); err != nil {
			d.logger.Warn("accept dialog", zap.Error(err))
		}
		ch <- ev.Message
	}()
	return ch, nil
}

// Close closes the page. A launched browser is closed too and its profile
// removed.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.pending != nil {
		d.pending()
		d.pending = nil
	}
	d.mu.Unlock()
	var err error
	if d.page != nil {
		err = d.page.Close()
	}
	// A remote browser outlives the driver.
	if d.launcher != nil && d.browser != nil {
		if cerr := d.browser.Close(); err == nil {
			err = cerr
		}
	}
	d.cleanup()
	return err
}

func (d *Driver) cleanup() {
	if d.launcher != nil {
		d.launcher.Cleanup()
	}
}
