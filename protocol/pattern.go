package protocol

import (
	"regexp"
	"strings"

	"github.com/pdf/goiobroker/common"
)

// handlerSet keeps the handlers registered per subscription pattern, in
// registration order
type handlerSet[H any] struct {
	patterns map[string]*patternHandlers[H]
	order    []string
}

type patternHandlers[H any] struct {
	matcher  *regexp.Regexp
	handlers []H
}

func newHandlerSet[H any]() *handlerSet[H] {
	return &handlerSet[H]{patterns: make(map[string]*patternHandlers[H])}
}

// add registers h for pattern and reports whether pattern is new
func (s *handlerSet[H]) add(pattern string, h H) bool {
	if ph, ok := s.patterns[pattern]; ok {
		ph.handlers = append(ph.handlers, h)
		return false
	}
	s.patterns[pattern] = &patternHandlers[H]{
		matcher:  compilePattern(pattern),
		handlers: []H{h},
	}
	s.order = append(s.order, pattern)
	return true
}

// match returns the handlers of every pattern matching id
func (s *handlerSet[H]) match(id string) []H {
	var out []H
	for _, pattern := range s.order {
		ph := s.patterns[pattern]
		if ph.matcher == nil {
			if pattern != id {
				continue
			}
		} else if !ph.matcher.MatchString(id) {
			continue
		}
		out = append(out, ph.handlers...)
	}
	return out
}

// remove drops pattern and all of its handlers
func (s *handlerSet[H]) remove(pattern string) {
	if _, ok := s.patterns[pattern]; !ok {
		return
	}
	delete(s.patterns, pattern)
	for i, p := range s.order {
		if p == pattern {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *handlerSet[H]) list() []string {
	return append([]string(nil), s.order...)
}

// compilePattern turns an ioBroker id pattern, where * matches any run of
// characters, into a regexp.  Patterns without a wildcard return nil and are
// compared for equality.
func compilePattern(pattern string) *regexp.Regexp {
	if !common.IsPattern(pattern) {
		return nil
	}
	parts := strings.Split(pattern, `*`)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile(`^` + strings.Join(parts, `.*`) + `$`)
}
