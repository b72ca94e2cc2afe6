// Package command implements the chat-style check command: it splits free
// text into sites and option flags, runs the batch and renders pages.
package command

import (
	"strings"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// Name is the command word accepted at the start of a line.
const Name = "check"

const (
	UsageMessage     = "Usage: " + Name + " <url1> <url2> ... [options]\nExample: " + Name + " steampowered.com -s -c -p"
	NoSitesMessage   = "Specify at least one URL. Example: " + Name + " steampowered.com -s"
	NoOptionsMessage = "Specify at least one option. Example: " + Name + " steampowered.com -s\nAvailable options: -s, -c, -p, -ip, -geo"
)

// InputError is a request the caller has to fix; nothing was probed.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Request is a parsed check command.
type Request struct {
	Sites   []domain.SiteQuery
	Options domain.CheckOptions
}

// Parse splits args into site identifiers and options. Tokens starting with
// '-' are options (any number of dashes); unknown options are ignored.
func Parse(args []string) (Request, error) {
	if len(args) == 0 {
		return Request{}, &InputError{Message: UsageMessage}
	}
	var req Request
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			if o, ok := domain.ParseOption(strings.TrimLeft(a, "-")); ok {
				req.Options |= domain.CheckOptions(o)
			}
			continue
		}
		req.Sites = append(req.Sites, domain.SiteQuery(a))
	}
	if len(req.Sites) == 0 {
		return Request{}, &InputError{Message: NoSitesMessage}
	}
	if req.Options.Empty() {
		return Request{}, &InputError{Message: NoOptionsMessage}
	}
	return req, nil
}

// Split tokenises a command line and reports which verb it names. A line
// without a leading verb is treated as a check.
func Split(line string) (verb string, args []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Name, nil
	}
	switch strings.ToLower(fields[0]) {
	case "h", "help":
		return "help", fields[1:]
	case Name, "r", "request":
		return Name, fields[1:]
	}
	return Name, fields
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
