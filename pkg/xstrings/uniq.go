package xstrings

import "strings"

type Comparable interface{ ~int | ~int64 | ~string }

func UniqueSlice[T Comparable](s []T) []T {
	keys := make(map[T]bool)
	list := []T{}
	for _, entry := range s {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// UniqueFold trims entries, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling seen.
func UniqueFold(s []string) []string {
	seen := make(map[string]bool)
	list := []string{}
	for _, entry := range s {
		entry = strings.TrimSpace(entry)
		key := strings.ToLower(entry)
		if entry == "" || seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, entry)
	}
	return list
}
