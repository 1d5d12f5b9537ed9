package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = tableItem{}
	_ list.Item = rowItem{}
)

// tableItem wraps a summary table name to implement [list.Item].
type tableItem struct {
	name string
	rows int
}

func (i tableItem) FilterValue() string { return i.name }
func (i tableItem) Title() string       { return displayName(i.name) }
func (i tableItem) Description() string {
	if i.rows == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", i.rows)
}

// rowItem wraps a single summary table row to implement [list.Item].
type rowItem struct {
	headers []string
	cells   []string
}

func (i rowItem) FilterValue() string {
	return strings.Join(i.cells, " ")
}

func (i rowItem) Title() string {
	if len(i.cells) == 0 {
		return ""
	}
	return i.cells[0]
}

func (i rowItem) Description() string {
	if len(i.cells) < 2 {
		return ""
	}
	pairs := make([]string, 0, len(i.cells)-1)
	for idx := 1; idx < len(i.cells); idx++ {
		label := ""
		if idx < len(i.headers) {
			label = i.headers[idx] + ": "
		}
		pairs = append(pairs, label+i.cells[idx])
	}
	return strings.Join(pairs, " • ")
}

// displayName turns a snake_case table name into a list title.
func displayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
