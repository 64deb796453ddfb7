package riskconf

import (
	"fmt"
	"strconv"
	"strings"
)

const refNameSep = "."

// maxExpandDepth caps reference chains so that circular references fail
// instead of recursing forever.
const maxExpandDepth = 10

// expandTree expands ${name} references in all string values of the
// configuration tree. Reference names are dot-separated paths from the tree
// root; slice elements are addressed by index. A reference to an undefined
// parameter expands to the empty string, and "$$" escapes expansion.
func expandTree(root M) error {
	return walkExpand(root, root, nil)
}

func walkExpand(root M, node any, crumbs []string) error {
	switch n := node.(type) {
	case M:
		for key, value := range n {
			if str, ok := value.(string); ok {
				res, err := expandRefs(root, str, 0)

				if err != nil {
					return fmt.Errorf("%w at %s", err,
						strings.Join(append(crumbs, key), refNameSep))
				}

				n[key] = res
				continue
			}

			if err := walkExpand(root, value, append(crumbs, key)); err != nil {
				return err
			}
		}
	case A:
		for i, value := range n {
			if str, ok := value.(string); ok {
				res, err := expandRefs(root, str, 0)

				if err != nil {
					return fmt.Errorf("%w at %s", err,
						strings.Join(append(crumbs, strconv.Itoa(i)), refNameSep))
				}

				n[i] = res
				continue
			}

			if err := walkExpand(root, value, append(crumbs, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}

	return nil
}

func expandRefs(root M, src string, depth int) (string, error) {
	if depth > maxExpandDepth {
		return "", fmt.Errorf("%s: too many nested references", errPref)
	}

	if !strings.Contains(src, "${") {
		return src, nil
	}

	runes := []rune(src)
	runesLen := len(runes)
	var res strings.Builder
	i := 0

	for i < runesLen {
		// Escaped reference: $${name} renders as the literal ${name}.
		if runes[i] == '$' && i+2 < runesLen && runes[i+1] == '$' && runes[i+2] == '{' {
			j := indexRune(runes, i+3, '}')

			if j < 0 {
				res.WriteString(string(runes[i:]))
				break
			}

			res.WriteString(string(runes[i+1 : j+1]))
			i = j + 1

			continue
		}

		if runes[i] == '$' && i+1 < runesLen && runes[i+1] == '{' {
			j := indexRune(runes, i+2, '}')

			if j < 0 {
				res.WriteString(string(runes[i:]))
				break
			}

			name := string(runes[i+2 : j])

			if name == "" {
				res.WriteString("${}")
			} else if value, ok := lookupPath(root, name); ok {
				str, err := renderValue(root, value, depth)

				if err != nil {
					return "", err
				}

				res.WriteString(str)
			}

			i = j + 1

			continue
		}

		res.WriteRune(runes[i])
		i++
	}

	return res.String(), nil
}

// renderValue stringifies a referenced value, expanding references the
// value itself may contain.
func renderValue(root M, value any, depth int) (string, error) {
	if str, ok := value.(string); ok {
		return expandRefs(root, str, depth+1)
	}

	return fmt.Sprintf("%v", value), nil
}

// lookupPath walks the tree along a dot-separated reference name.
func lookupPath(root M, name string) (any, bool) {
	var node any = root

	for _, token := range strings.Split(name, refNameSep) {
		token = strings.TrimSpace(token)

		switch n := node.(type) {
		case M:
			child, ok := n[token]

			if !ok {
				return nil, false
			}

			node = child
		case A:
			i, err := strconv.Atoi(token)

			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}

			node = n[i]
		default:
			return nil, false
		}
	}

	return node, true
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}

	return -1
}
