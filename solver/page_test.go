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

package solver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ttbt-io/fakegold/backend"
)

// fakePage is an in-memory puzzle page. Weighings are either computed by a
// backend.Puzzle or taken from a script, and show up in the log after lag
// reads of the results.
type fakePage struct {
	mu sync.Mutex

	title  string
	puzzle *backend.Puzzle
	script []string
	lag    int
	stall  bool // weighings never show up
	silent bool // coin clicks open no dialog

	fields  map[string]string
	log     []string
	pending []string
	wait    int
	reads   int
	clicks  []string
	dialog  chan string
	visited string
}

var _ Driver = (*fakePage)(nil)

func newPuzzlePage(fake int) *fakePage {
	p, err := backend.NewPuzzle(backend.DefaultCoins, fake)
	if err != nil {
		panic(err)
	}
	return &fakePage{title: DefaultTitle, puzzle: p, fields: make(map[string]string)}
}

func newScriptedPage(records ...string) *fakePage {
	return &fakePage{title: DefaultTitle, script: records, fields: make(map[string]string)}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = url
	return ctx.Err()
}

func (p *fakePage) Title(ctx context.Context) (string, error) {
	return p.title, ctx.Err()
}

func (p *fakePage) SetField(ctx context.Context, id, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !strings.HasPrefix(id, "left_") && !strings.HasPrefix(id, "right_") {
		return fmt.Errorf("no input %q", id)
	}
	p.fields[id] = value
	return ctx.Err()
}

func (p *fakePage) Click(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, id)
	switch {
	case id == "weigh":
		p.weigh()
	case id == "reset":
		p.fields = make(map[string]string)
	case strings.HasPrefix(id, "coin_"):
		p.guess(strings.TrimPrefix(id, "coin_"))
	default:
		return fmt.Errorf("no button %q", id)
	}
	return ctx.Err()
}

func (p *fakePage) pan(side string) []int {
	var out []int
	for i := 0; i < backend.DefaultCoins; i++ {
		v, ok := p.fields[fmt.Sprintf("%s_%d", side, i)]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (p *fakePage) weigh() {
	if p.stall {
		return
	}
	var rec string
	switch {
	case p.puzzle != nil:
		r, err := p.puzzle.Weigh(p.pan("left"), p.pan("right"))
		if err != nil {
			return
		}
		rec = r
	case len(p.script) > 0:
		rec, p.script = p.script[0], p.script[1:]
	default:
		return
	}
	if len(p.pending) == 0 {
		p.wait = p.lag
	}
	p.pending = append(p.pending, rec)
}

func (p *fakePage) guess(id string) {
	if p.silent || p.dialog == nil {
		return
	}
	msg := backend.MessageWrong
	if p.puzzle != nil {
		n, err := strconv.Atoi(id)
		if err == nil {
			if _, m, err := p.puzzle.Guess(n); err == nil {
				msg = m
			}
		}
	}
	p.dialog <- msg
	close(p.dialog)
	p.dialog = nil
}

func (p *fakePage) TextList(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector != DefaultSelectors.Results {
		return nil, fmt.Errorf("unexpected selector %q", selector)
	}
	p.reads++
	if len(p.pending) > 0 {
		if p.wait == 0 {
			p.log = append(p.log, p.pending[0])
			p.pending = p.pending[1:]
			p.wait = p.lag
		} else {
			p.wait--
		}
	}
	return append([]string(nil), p.log...), ctx.Err()
}

func (p *fakePage) ExpectDialog(ctx context.Context) (<-chan string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialog = make(chan string, 1)
	return p.dialog, nil
}

func (p *fakePage) Close() error {
	return nil
}

func (p *fakePage) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}
