// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package parallel provides a minimal fork-join helper to spread independent
// work over the available CPUs.
package parallel

import (
	"runtime"
	"sync"
)

// Execute runs work over [iStart, iEnd) split in contiguous chunks, one
// goroutine per chunk, and waits for completion. work must not panic.
func Execute(iStart, iEnd int, work func(start, end int)) {
	<-ExecuteAsync(iStart, iEnd, work)
}

// ExecuteAsync runs work over [iStart, iEnd) split in contiguous chunks and
// returns a channel that is closed when all chunks are done.
func ExecuteAsync(iStart, iEnd int, work func(start, end int)) chan struct{} {
	nbIterations := iEnd - iStart
	nbTasks := runtime.NumCPU()
	nbIterationsPerTask := nbIterations / nbTasks

	// fewer iterations than CPUs: one iteration per task
	if nbIterationsPerTask < 1 {
		nbIterationsPerTask = 1
		nbTasks = nbIterations
	}

	var wg sync.WaitGroup

	extraTasks := nbIterations - nbTasks*nbIterationsPerTask
	offset := iStart
	for i := 0; i < nbTasks; i++ {
		start := offset
		end := start + nbIterationsPerTask
		if extraTasks > 0 {
			end++
			extraTasks--
		}
		offset = end
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(start, end)
		}()
	}

	chDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(chDone)
	}()
	return chDone
}
