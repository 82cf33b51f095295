package scheduled

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 100
)

// EntryParser decodes one raw page entry into an item and the key the
// cursor advances to.
type EntryParser[T any] func(raw json.RawMessage) (T, snowflake.ID, error)

// KeyProbe recovers just the key of an entry the parser rejected. It is
// used only when no entry of a full page could be parsed.
type KeyProbe func(raw json.RawMessage) (snowflake.ID, bool)

// Paginator walks a remote sub-collection forward in pages, using the key
// of the last returned item as an exclusive cursor. It is finite and not
// restartable; create a new Paginator to scan again. Not safe for
// concurrent use.
type Paginator[T any] struct {
	requester Requester
	route     CompiledRoute
	parse     EntryParser[T]
	probe     KeyProbe
	log       *slog.Logger

	limit int
	last  snowflake.ID
	done  bool
}

func NewPaginator[T any](requester Requester, route CompiledRoute, parse EntryParser[T], probe KeyProbe, opts ...Option) *Paginator[T] {
	o := buildOptions(opts)
	return &Paginator[T]{
		requester: requester,
		route:     route,
		parse:     parse,
		probe:     probe,
		log:       o.logger,
		limit:     DefaultPageSize,
	}
}

func (p *Paginator[T]) Limit() int { return p.limit }

// SetLimit changes the page size for subsequent fetches.
func (p *Paginator[T]) SetLimit(n int) error {
	if n < MinPageSize || n > MaxPageSize {
		return invalid("limit", fmt.Sprintf("must be between %d and %d", MinPageSize, MaxPageSize))
	}
	p.limit = n
	return nil
}

// Cursor is the key of the last item returned, zero before the first page.
func (p *Paginator[T]) Cursor() snowflake.ID { return p.last }

// HasMore reports whether another fetch may yield items.
func (p *Paginator[T]) HasMore() bool { return !p.done }

// NextPage fetches the page after the cursor. Once the end is reached it
// returns an empty page without a request. On error the cursor is left
// where it was, so calling again retries the same page.
func (p *Paginator[T]) NextPage(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	route := p.route.WithQuery("limit", strconv.Itoa(p.limit))
	if p.last != 0 {
		route = route.WithQuery("after", p.last.String())
	}
	resp, err := execute(ctx, p.requester, Request{Route: route})
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("decode page of %s: %w", p.route, err)
	}

	items, last, parsed := p.fold(raw)
	switch {
	case parsed:
		p.last = last
	case len(raw) >= p.limit:
		key, ok := p.probeLast(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %d entries after %s", ErrCursorStalled, len(raw), p.last)
		}
		p.last = key
	}
	if len(raw) < p.limit {
		p.done = true
	}
	return items, nil
}

// fold keeps the parsed items and the key of the last one separately so a
// bad trailing entry never moves the cursor.
func (p *Paginator[T]) fold(raw []json.RawMessage) ([]T, snowflake.ID, bool) {
	items := make([]T, 0, len(raw))
	var last snowflake.ID
	for i, entry := range raw {
		item, key, err := p.parse(entry)
		if err != nil {
			p.log.Warn("skipping malformed page entry",
				slog.String("route", p.route.Path),
				slog.Int("index", i),
				slog.Any("error", err),
			)
			continue
		}
		items = append(items, item)
		last = key
	}
	return items, last, len(items) > 0
}

func (p *Paginator[T]) probeLast(raw []json.RawMessage) (snowflake.ID, bool) {
	if p.probe == nil {
		return 0, false
	}
	for i := len(raw) - 1; i >= 0; i-- {
		if key, ok := p.probe(raw[i]); ok && key != 0 {
			return key, true
		}
	}
	return 0, false
}

// All yields every remaining item, fetching pages as needed. Iteration
// stops at the first error, which is yielded with a zero item. Items of a
// page that were not consumed before the caller stopped are not replayed.
func (p *Paginator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.HasMore() {
			page, err := p.NextPage(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}
