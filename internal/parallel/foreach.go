// Package parallel provides a bounded parallel for loop.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Workers is the default number of goroutines used by ForEach: the number of physical cores
// when it is known, GOMAXPROCS otherwise.
func Workers() int {
	n := cpuid.CPU.PhysicalCores
	if procs := runtime.GOMAXPROCS(0); n <= 0 || n > procs {
		n = procs
	}
	if n <= 0 {
		n = 1
	}
	return n
}

// ForEach calls body for every i in [0, length) with at most limit concurrent goroutines.
// A limit <= 0 means Workers().
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = Workers()
	}
	if limit == 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)
	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			body(i)
		}(i)
	}
	wg.Wait()
}
