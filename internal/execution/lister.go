package execution

import (
	"context"
	"fmt"
)

// Lister walks the service's execution IDs newest first, one page at a
// time. Use it like bufio.Scanner:
//
//	l := execution.NewLister(svc)
//	for l.Next(ctx) {
//		id := l.ID()
//	}
//	if err := l.Err(); err != nil { ... }
//
// A Lister cannot be rewound; start a new one to rescan.
type Lister struct {
	service Service
	opts    options

	page      []string
	pos       int
	token     string
	exhausted bool

	current string
	err     error
}

// NewLister creates a Lister positioned before the newest execution.
func NewLister(service Service, opts ...Option) *Lister {
	return &Lister{service: service, opts: newOptions(opts)}
}

// Next advances to the next ID, fetching a new page when the buffered one is
// drained. It returns false at the end of the listing or on error.
func (l *Lister) Next(ctx context.Context) bool {
	for l.pos >= len(l.page) {
		if l.err != nil || l.exhausted {
			return false
		}
		if err := l.fetch(ctx); err != nil {
			l.err = err
			return false
		}
	}

	l.current = l.page[l.pos]
	l.pos++
	return true
}

// ID returns the ID produced by the last successful call to Next.
func (l *Lister) ID() string {
	return l.current
}

// Err returns the first non-throttling error encountered.
func (l *Lister) Err() error {
	return l.err
}

func (l *Lister) fetch(ctx context.Context) error {
	var page Page
	err := l.opts.retryThrottled(ctx, OpList, func(ctx context.Context) error {
		var err error
		page, err = l.service.ListPage(ctx, l.token)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list query executions: %w", err)
	}

	l.page = page.IDs
	l.pos = 0
	l.token = page.NextToken
	l.exhausted = page.NextToken == ""
	return nil
}
