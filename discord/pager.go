package discord

// MessagePager walks a thread's message history newest-to-oldest as a
// lazy, finite sequence of pages, following the before-cursor until the
// source returns an empty page.
type MessagePager struct {
	src      Source
	threadID string
	limit    int
	before   string
	done     bool
}

// NewMessagePager creates a pager starting at the newest message.
func NewMessagePager(src Source, threadID string, limit int) *MessagePager {
	return NewMessagePagerAt(src, threadID, limit, "")
}

// NewMessagePagerAt creates a pager restarting from an explicit
// before-cursor, e.g. after a prior partial walk.
func NewMessagePagerAt(src Source, threadID string, limit int, before string) *MessagePager {
	if limit <= 0 {
		limit = 100
	}
	return &MessagePager{
		src:      src,
		threadID: threadID,
		limit:    limit,
		before:   before,
	}
}

// Next fetches the next page. It returns nil once the history is
// exhausted. A fetch error does not advance the cursor, so the same page
// can be retried.
func (p *MessagePager) Next() ([]Message, error) {
	if p.done {
		return nil, nil
	}

	msgs, err := p.src.Messages(p.threadID, p.limit, p.before)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		p.done = true
		return nil, nil
	}

	// Pages arrive newest-first; the oldest entry is the next cursor.
	p.before = msgs[len(msgs)-1].ID
	return msgs, nil
}

// Cursor returns the current before-cursor, empty before the first page.
func (p *MessagePager) Cursor() string {
	return p.before
}
