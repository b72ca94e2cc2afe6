package report

import (
	"errors"
	"sync"
	"time"
)

// DefaultIdle is how long a navigator stays usable without input.
const DefaultIdle = 120 * time.Second

var (
	ErrExpired  = errors.New("navigation expired")
	ErrDisabled = errors.New("navigation control disabled")
	ErrNoPages  = errors.New("no pages to navigate")
)

// Action is a navigation control.
type Action string

const (
	First Action = "first"
	Prev  Action = "prev"
	Next  Action = "next"
	Last  Action = "last"
)

// ParseAction accepts the control names plus "previous".
func ParseAction(s string) (Action, bool) {
	switch s {
	case "first":
		return First, true
	case "prev", "previous":
		return Prev, true
	case "next":
		return Next, true
	case "last":
		return Last, true
	}
	return "", false
}

// Controls reports which navigation controls are enabled.
type Controls struct {
	First bool `json:"first"`
	Prev  bool `json:"prev"`
	Next  bool `json:"next"`
	Last  bool `json:"last"`
}

// Navigator is a small state machine over a fixed page list: active on page N
// until Idle passes with no input, then expired for good.
type Navigator struct {
	mu       sync.Mutex
	pages    []Page
	current  int
	idle     time.Duration
	deadline time.Time
	expired  bool

	now func() time.Time
}

func NewNavigator(pages []Page, idle time.Duration) (*Navigator, error) {
	return newNavigator(pages, idle, time.Now)
}

func newNavigator(pages []Page, idle time.Duration, now func() time.Time) (*Navigator, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Navigator{
		pages:    pages,
		idle:     idle,
		deadline: now().Add(idle),
		now:      now,
	}, nil
}

// Current returns the displayed page; it does not count as input.
func (n *Navigator) Current() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pages[n.current]
}

// Expired reports whether the idle period has run out.
func (n *Navigator) Expired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checkExpiry()
}

// Controls lists the enabled controls for the current state. An expired
// navigator has every control disabled, as does a single page.
func (n *Navigator) Controls() Controls {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.controls()
}

// Do applies a navigation action and returns the newly displayed page.
// A disabled control leaves the state untouched.
func (n *Navigator) Do(a Action) (Page, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.checkExpiry() {
		return Page{}, ErrExpired
	}
	c := n.controls()
	lastIdx := len(n.pages) - 1
	switch {
	case a == First && c.First:
		n.current = 0
	case a == Prev && c.Prev:
		n.current--
	case a == Next && c.Next:
		n.current++
	case a == Last && c.Last:
		n.current = lastIdx
	default:
		return n.pages[n.current], ErrDisabled
	}
	n.deadline = n.now().Add(n.idle)
	return n.pages[n.current], nil
}

func (n *Navigator) checkExpiry() bool {
	if !n.expired && !n.now().Before(n.deadline) {
		n.expired = true
	}
	return n.expired
}

func (n *Navigator) controls() Controls {
	if n.checkExpiry() {
		return Controls{}
	}
	atStart := n.current == 0
	atEnd := n.current == len(n.pages)-1
	return Controls{First: !atStart, Prev: !atStart, Next: !atEnd, Last: !atEnd}
}
