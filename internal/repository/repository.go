// Package repository contains the pgx-backed data access layer. Every
// query runs under a short per-call timeout; a missing row is (nil, nil),
// not an error.
package repository

import "strconv"

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
