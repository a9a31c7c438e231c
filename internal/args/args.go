// Package args substitutes command-line arguments into task patterns.
//
// Supported placeholders:
//
//	{1}, {2}, ...   the Nth argument
//	{@}             all arguments, each quoted as its own word
//	{*}             all arguments joined into a single quoted word
//	{1:-value}      the Nth argument, or value when it is missing
//	{1:=value}      like :- but also makes value the default for later {1}
package args

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
)

var placeholderPattern = regexp.MustCompile(`\{(!)?([*@]|\d+)([^}]+)?\}`)

// Apply replaces the placeholders in every pattern. Patterns without
// placeholders are returned unchanged.
func Apply(patterns []string, arguments []string) ([]string, error) {
	defaults := make(map[string]string)
	out := make([]string, len(patterns))

	for i, pattern := range patterns {
		var applyErr error
		out[i] = placeholderPattern.ReplaceAllStringFunc(pattern, func(whole string) string {
			if applyErr != nil {
				return whole
			}
			value, err := expand(whole, arguments, defaults)
			if err != nil {
				applyErr = err
			}
			return value
		})
		if applyErr != nil {
			return nil, applyErr
		}
	}
	return out, nil
}

func expand(whole string, arguments []string, defaults map[string]string) (string, error) {
	m := placeholderPattern.FindStringSubmatch(whole)
	indirection, id, options := m[1], m[2], m[3]
	if indirection != "" {
		return "", runerrors.Validationf("Invalid Placeholder: %s", whole)
	}

	switch id {
	case "@":
		return shellquote.Join(arguments...), nil
	case "*":
		return shellquote.Join(strings.Join(arguments, " ")), nil
	}

	position, err := strconv.Atoi(id)
	if err == nil && position >= 1 && position <= len(arguments) {
		return shellquote.Join(arguments[position-1]), nil
	}

	if options != "" {
		switch {
		case strings.HasPrefix(options, ":="):
			defaults[id] = shellquote.Join(options[2:])
			return defaults[id], nil
		case strings.HasPrefix(options, ":-"):
			return shellquote.Join(options[2:]), nil
		}
		return "", runerrors.Validationf("Invalid Placeholder: %s", whole)
	}
	return defaults[id], nil
}
