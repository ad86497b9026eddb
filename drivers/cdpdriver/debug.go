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

package cdpdriver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// CaptureScreenshot captures a screenshot and saves it to the specified filename.
func (d *Driver) CaptureScreenshot(ctx context.Context, filename string) error {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for screenshot: %w", err)
	}
	if err := os.WriteFile(filename, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot to file: %w", err)
	}
	d.logger.Info("saved screenshot", zap.String("file", filename))
	return nil
}

// DebugFailure saves a screenshot, the page HTML and the console errors
// under dir, using name as the file prefix.
func (d *Driver) DebugFailure(ctx context.Context, dir, name string) error {
	base := filepath.Join(dir, name)
	if err := d.CaptureScreenshot(ctx, base+".png"); err != nil {
		return err
	}
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to read page html: %w", err)
	}
	if err := os.WriteFile(base+".html", []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write page html: %w", err)
	}
	if errs := d.ConsoleErrors(); len(errs) > 0 {
		if err := os.WriteFile(base+".console.txt", []byte(strings.Join(errs, "\n")+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write console errors: %w", err)
		}
	}
	return nil
}
