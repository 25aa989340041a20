// Package filters maps list-view pagination and filter state to and from URL
// query values. It is the only place that decides what appears in the
// address bar.
package filters

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query keys.
const (
	KeyPageIndex = "pageIndex"
	KeyPageSize  = "pageSize"
	KeyID        = "id"
	KeyUsername  = "username"
	KeyTitle     = "title"
	KeyEmail     = "email"
)

const (
	DefaultPageIndex = 0
	DefaultPageSize  = 10
	MaxPageSize      = 100
	// MaxPageIndex keeps PageIndex*PageSize within an int.
	MaxPageIndex = math.MaxInt / MaxPageSize
)

// PageSizes are the sizes offered by the list view.
var PageSizes = []int{10, 20, 50, 100}

// Update is a partial change to the query state. A key mapped to nil, "" or
// NaN removes that key.
type Update map[string]any

// State is the decoded list-view state.
type State struct {
	PageIndex int
	PageSize  int

	// Column filters. Empty means no filter.
	ID       string
	Username string
	Title    string
	Email    string
}

// Encode merges update onto prev and returns the canonical query. Keys not in
// update keep their previous value. pageIndex and pageSize are dropped when
// they hold their defaults. prev is not modified.
func Encode(prev url.Values, update Update) url.Values {
	out := make(url.Values, len(prev)+len(update))
	for key, values := range prev {
		if len(values) == 0 {
			continue
		}
		out[key] = append([]string(nil), values...)
	}

	for key, value := range update {
		s, ok := formatValue(value)
		if !ok {
			out.Del(key)
			continue
		}
		out.Set(key, s)
	}

	elideDefault(out, KeyPageIndex, DefaultPageIndex)
	elideDefault(out, KeyPageSize, DefaultPageSize)
	return out
}

// Decode reads list-view state from q. Missing or malformed values fall back
// to defaults; it never fails.
func Decode(q url.Values) State {
	state := State{
		PageIndex: parseInt(q.Get(KeyPageIndex), DefaultPageIndex),
		PageSize:  parseInt(q.Get(KeyPageSize), DefaultPageSize),
		ID:        q.Get(KeyID),
		Username:  q.Get(KeyUsername),
		Title:     q.Get(KeyTitle),
		Email:     q.Get(KeyEmail),
	}
	switch {
	case state.PageIndex < 0:
		state.PageIndex = DefaultPageIndex
	case state.PageIndex > MaxPageIndex:
		state.PageIndex = MaxPageIndex
	}
	switch {
	case state.PageSize < 1:
		state.PageSize = DefaultPageSize
	case state.PageSize > MaxPageSize:
		state.PageSize = MaxPageSize
	}
	return state
}

// Reset returns path with the query stripped.
func Reset(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}

// Href renders path with q appended when q is non-empty.
func Href(path string, q url.Values) string {
	path = Reset(path)
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Update returns the partial update that encodes s.
func (s State) Update() Update {
	return Update{
		KeyPageIndex: s.PageIndex,
		KeyPageSize:  s.PageSize,
		KeyID:        s.ID,
		KeyUsername:  s.Username,
		KeyTitle:     s.Title,
		KeyEmail:     s.Email,
	}
}

// Limit is the page size to request.
func (s State) Limit() int {
	return s.PageSize
}

// Offset is the number of rows before the current page.
func (s State) Offset() int {
	return s.PageIndex * s.PageSize
}

// PageCount returns how many pages total rows fill. An empty listing still
// has one page.
func (s State) PageCount(total int) int {
	if total <= 0 || s.PageSize <= 0 {
		return 1
	}
	return (total + s.PageSize - 1) / s.PageSize
}

func formatValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

func formatFloat(v float64, bits int) (string, bool) {
	if math.IsNaN(v) {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, bits), true
}

func elideDefault(q url.Values, key string, def int) {
	raw := q.Get(key)
	if raw == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n == def {
		q.Del(key)
	}
}

func parseInt(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
