package utils

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group size.
	BeforeParallelGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel parallelizes the given size of work over multiple workers. Work items are
// split into contiguous ranges, one per group; the last group also takes the remainder.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		before(0)
		return ctx.Err()
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	before(numGroups)

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == (numGroups - 1) {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := (groupSize * (groupNum + 1)) + thisExtra
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return ctx.Err()
}

// ParallelForEachIndex calls f once for every index in [0, n). Calls for distinct indices may run
// concurrently, so f must only write to state owned by its index.
func ParallelForEachIndex(n int, f func(i int)) {
	//nolint:errcheck
	GroupWorkParallel(context.Background(), n, func(int) {}, func(_, _, _, _ int) (MemberWorkFunc, GroupWorkDoneFunc) {
		return func(_, workNum int) { f(workNum) }, nil
	})
}

// ParallelForEachPixel loops through the image and calls f functions for each [x, y] position.
// The image is divided into horizontal bands, one per worker; within a band pixels are
// visited row by row.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	bands := ParallelFactor
	if size.Y < bands {
		bands = size.Y
	}
	rowsPerBand := size.Y / bands
	var waitGroup sync.WaitGroup
	waitGroup.Add(bands)
	for i := 0; i < bands; i++ {
		startY := i * rowsPerBand
		endY := startY + rowsPerBand
		if i == bands-1 {
			endY = size.Y
		}
		sY, eY := startY, endY
		utils.PanicCapturingGo(func() {
			defer waitGroup.Done()
			for y := sY; y < eY; y++ {
				for x := 0; x < size.X; x++ {
					f(x, y)
				}
			}
		})
	}
	waitGroup.Wait()
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}
