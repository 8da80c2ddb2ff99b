package crawler

import (
	"fmt"
	"strconv"
	"strings"
)

// parentToken is the parent-navigation entry every listing page carries.
const parentToken = "../"

// Classify partitions listing tokens into files and folders, keeping the
// order in which tokens first appear.
//
// A token is a folder when its string form ends with "/" and is not exactly
// "../". The "../" token is dropped. Every other token is a file.
//
// Tokens of any scalar type are accepted. This is the only place they are
// converted to strings: integers and floats use their canonical decimal form,
// fmt.Stringer values their String method, everything else fmt.Sprint.
// Both results are non-nil, so an empty input yields two empty slices.
func Classify[T any](tokens []T) (files, folders []string) {
	files = make([]string, 0, len(tokens))
	folders = make([]string, 0)

	for _, tok := range tokens {
		s := tokenString(tok)
		switch {
		case s == parentToken:
			continue
		case strings.HasSuffix(s, "/"):
			folders = append(folders, s)
		default:
			files = append(files, s)
		}
	}
	return files, folders
}

func tokenString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
