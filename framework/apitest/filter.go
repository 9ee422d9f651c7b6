package apitest

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) AsFilter(id TestID) bool {
	name := id.String()
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatchPrefix(id)) &&
		!r.MustNotMatch.AnyMatch(name)
}

// RegexList is a list of patterns that can be set repeatedly from the command line.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type is called by the command line parser to describe the flag's value.
func (r *RegexList) Type() string {
	return "regex"
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// AnyMatchPrefix is true if any pattern matches the full test name, or if the test is a
// group whose name is a leading part of a pattern. Without the second condition, a pattern
// such as "GET /users/search/gets users by email" would exclude the enclosing group before
// its subtests were ever considered.
//
// The group comparison is textual: a pattern's leading part must be the group name either as
// written or as escaped by regexp.QuoteMeta. Patterns that use regex syntax inside the group
// part are only matched against full names.
func (r RegexList) AnyMatchPrefix(id TestID) bool {
	if r.AnyMatch(id.String()) {
		return true
	}
	group := id.String() + "/"
	quotedGroup := regexp.QuoteMeta(id.String()) + "/"
	for _, p := range r.patterns {
		source := strings.TrimPrefix(p.String(), "^")
		if strings.HasPrefix(source, group) || strings.HasPrefix(source, quotedGroup) {
			return true
		}
	}
	return false
}

func PrintFilterDescription(out io.Writer, filters RegexFilters) {
	if filters.MustMatch.IsDefined() || filters.MustNotMatch.IsDefined() {
		fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
		if filters.MustMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
		}
		if filters.MustNotMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
		}
		fmt.Fprintln(out)
	}
}
